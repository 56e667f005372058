// Package browser fetches pages that need JavaScript to render. Its Sender
// drops into a fetch.Fetcher in place of the plain HTTP client.
package browser
