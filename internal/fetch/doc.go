// Package fetch retrieves HTTP resources through a rotating pool of proxies.
//
// A Fetcher owns one request and tries it through successive entries of a
// shuffled pool until an attempt succeeds or the retry policy is exhausted.
// GetAsync and PostAsync process the response and deposit the payload into a
// shared Store, and RunBatch drives many fetchers concurrently.
package fetch
