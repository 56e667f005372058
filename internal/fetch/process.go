package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"quantkit/internal/request"
)

// ProcessFunc turns a successful response into the payload stored for its URL.
// An error makes the attempt count as failed.
type ProcessFunc func(resp *request.Response) (any, error)

// ProcessJSON decodes the body as JSON
func ProcessJSON(resp *request.Response) (any, error) {
	return resp.JSON()
}

// ProcessText returns the decoded body text
func ProcessText(resp *request.Response) (any, error) {
	return resp.Text()
}

// ProcessSelect returns the trimmed text of every node matching a CSS
// selector. A page without a match fails the attempt, which catches block
// pages served with a 200 status.
func ProcessSelect(selector string) ProcessFunc {
	return func(resp *request.Response) (any, error) {
		doc, err := resp.Document()
		if err != nil {
			return nil, err
		}
		var texts []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			texts = append(texts, strings.TrimSpace(s.Text()))
		})
		if len(texts) == 0 {
			return nil, fmt.Errorf("selector %q matched nothing", selector)
		}
		return texts, nil
	}
}
