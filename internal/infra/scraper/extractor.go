// Package scraper implements the article acquisition side of the worker:
// the Yahoo search fan-out, the HTML extractor with its read-more follow
// policy, the most-active ticker directory, and the RSS alternate source.
package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrParsingHTMLDocument signals that the document could not be parsed at
// all. Callers swallow it and keep the article with empty summary/body.
var ErrParsingHTMLDocument = errors.New("error parsing html document")

// interstitialSentinel marks a bot-block page served instead of article
// HTML. Any extracted string containing it is discarded.
const interstitialSentinel = "not supported on your current browser version"

// readMorePublishers maps read-more link hosts to their dedicated parsers.
const motleyFoolHost = "www.fool.com"

// PageFetcher abstracts the proxy chain for article page fetches. An empty
// body means the transport failed and there is nothing to parse.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extract is the result of pulling an article page apart.
type Extract struct {
	Title   string
	Summary string
	Body    string
}

// Extractor turns raw article HTML into (title, summary, body).
type Extractor struct {
	pages PageFetcher
}

// NewExtractor creates an Extractor that follows read-more links through
// the given page fetcher.
func NewExtractor(pages PageFetcher) *Extractor {
	return &Extractor{pages: pages}
}

// Extract parses the article HTML fetched from sourceURL.
//
//   - title is the first <h1>, falling back to the first <h2>
//   - summary is the text of the first <p>
//   - body follows the read-more link for known publishers, otherwise it
//     is the concatenation of every <p> in the document
//
// Interstitial bot-block strings are dropped rather than returned. A
// document that cannot be parsed yields ErrParsingHTMLDocument.
func (e *Extractor) Extract(ctx context.Context, html, sourceURL string) (Extract, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extract{}, ErrParsingHTMLDocument
	}

	out := Extract{}
	out.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if out.Title == "" {
		out.Title = strings.TrimSpace(doc.Find("h2").First().Text())
	}
	out.Summary = strings.TrimSpace(doc.Find("p").First().Text())
	out.Body = e.extractBody(ctx, doc)

	out.Title = dropInterstitial(out.Title)
	out.Summary = dropInterstitial(out.Summary)
	out.Body = dropInterstitial(out.Body)
	return out, nil
}

// extractBody implements the two-stage read-more policy: when the document
// carries a caas-readmore link pointing at a known publisher, the linked
// page is fetched through the proxy chain and handed to that publisher's
// parser. Everything else falls back to concatenating the paragraphs of
// the original document.
func (e *Extractor) extractBody(ctx context.Context, doc *goquery.Document) string {
	href, ok := doc.Find("div.caas-readmore a").First().Attr("href")
	if ok && href != "" {
		if linkHost(href) == motleyFoolHost && e.pages != nil {
			followed, err := e.pages.Fetch(ctx, href)
			if err == nil && followed != "" {
				if article, err := ParseMotleyFool(followed); err == nil {
					return article.Content
				}
			}
		}
	}
	return concatParagraphs(doc)
}

// concatParagraphs joins the text of every <p> with no separator.
func concatParagraphs(doc *goquery.Document) string {
	var sb strings.Builder
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(strings.TrimSpace(s.Text()))
	})
	return sb.String()
}

// dropInterstitial blanks strings that contain the bot-block sentinel.
func dropInterstitial(s string) string {
	if strings.Contains(strings.ToLower(s), interstitialSentinel) {
		return ""
	}
	return s
}

// linkHost returns the lower-cased host of a URL, or "" when unparseable.
func linkHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}
