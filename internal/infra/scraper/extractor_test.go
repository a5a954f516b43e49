package scraper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/MJ-API-Development/NewsAPI/internal/infra/scraper"
)

// stubPages serves canned bodies per URL.
type stubPages struct {
	bodies map[string]string
	err    error
	calls  []string
}

func (s *stubPages) Fetch(_ context.Context, url string) (string, error) {
	s.calls = append(s.calls, url)
	if s.err != nil {
		return "", s.err
	}
	return s.bodies[url], nil
}

func TestExtractor_Extract_TitleSummaryBody(t *testing.T) {
	html := `<html><body>
<h1>Apple Raises Guidance</h1>
<p>The company beat expectations.</p>
<p>Shares rose in after-hours trading.</p>
</body></html>`

	ex := scraper.NewExtractor(nil)
	got, err := ex.Extract(context.Background(), html, "https://finance.yahoo.com/news/x")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if got.Title != "Apple Raises Guidance" {
		t.Errorf("Title = %q, want %q", got.Title, "Apple Raises Guidance")
	}
	if got.Summary != "The company beat expectations." {
		t.Errorf("Summary = %q, want %q", got.Summary, "The company beat expectations.")
	}
	want := "The company beat expectations.Shares rose in after-hours trading."
	if got.Body != want {
		t.Errorf("Body = %q, want %q", got.Body, want)
	}
}

func TestExtractor_Extract_H2Fallback(t *testing.T) {
	html := `<html><body><h2>Fallback Headline</h2><p>Lead.</p></body></html>`

	ex := scraper.NewExtractor(nil)
	got, err := ex.Extract(context.Background(), html, "https://example.com/a")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Title != "Fallback Headline" {
		t.Errorf("Title = %q, want %q", got.Title, "Fallback Headline")
	}
}

func TestExtractor_Extract_ReadMoreFollowsKnownPublisher(t *testing.T) {
	foolURL := "https://www.fool.com/investing/2023/05/01/story"
	foolHTML := `<html><body>
<h2 class="font-light">Why This Stock Soared</h2>
<p>First paragraph.</p>
<p>Second paragraph.</p>
</body></html>`

	pages := &stubPages{bodies: map[string]string{foolURL: foolHTML}}
	ex := scraper.NewExtractor(pages)

	html := `<html><body>
<h1>Headline</h1>
<p>Teaser text.</p>
<div class="caas-readmore"><a href="` + foolURL + `">Continue reading</a></div>
</body></html>`

	got, err := ex.Extract(context.Background(), html, "https://finance.yahoo.com/news/y")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(pages.calls) != 1 || pages.calls[0] != foolURL {
		t.Fatalf("fetch calls = %v, want exactly [%s]", pages.calls, foolURL)
	}
	want := "First paragraph. Second paragraph."
	if got.Body != want {
		t.Errorf("Body = %q, want %q", got.Body, want)
	}
}

func TestExtractor_Extract_ReadMoreUnknownPublisherFallsBack(t *testing.T) {
	pages := &stubPages{bodies: map[string]string{}}
	ex := scraper.NewExtractor(pages)

	html := `<html><body>
<h1>Headline</h1>
<p>Only paragraph.</p>
<div class="caas-readmore"><a href="https://www.other-site.com/story">More</a></div>
</body></html>`

	got, err := ex.Extract(context.Background(), html, "https://finance.yahoo.com/news/z")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(pages.calls) != 0 {
		t.Errorf("fetch calls = %v, want none for unknown publisher", pages.calls)
	}
	if got.Body != "Only paragraph." {
		t.Errorf("Body = %q, want %q", got.Body, "Only paragraph.")
	}
}

func TestExtractor_Extract_ReadMoreFetchFailureFallsBack(t *testing.T) {
	pages := &stubPages{err: errors.New("proxy down")}
	ex := scraper.NewExtractor(pages)

	html := `<html><body>
<h1>Headline</h1>
<p>Local text.</p>
<div class="caas-readmore"><a href="https://www.fool.com/story">More</a></div>
</body></html>`

	got, err := ex.Extract(context.Background(), html, "https://finance.yahoo.com/news/w")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Body != "Local text." {
		t.Errorf("Body = %q, want fallback to local paragraphs, got %q", got.Body, "Local text.")
	}
}

func TestExtractor_Extract_DropsInterstitial(t *testing.T) {
	html := `<html><body>
<h1>Real Title</h1>
<p>This site is NOT SUPPORTED on your current browser version.</p>
</body></html>`

	ex := scraper.NewExtractor(nil)
	got, err := ex.Extract(context.Background(), html, "https://finance.yahoo.com/news/v")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Summary != "" {
		t.Errorf("Summary = %q, want empty for interstitial text", got.Summary)
	}
	if got.Body != "" {
		t.Errorf("Body = %q, want empty for interstitial text", got.Body)
	}
	if got.Title != "Real Title" {
		t.Errorf("Title = %q, want %q", got.Title, "Real Title")
	}
}

func TestExtractor_Extract_EmptyDocument(t *testing.T) {
	ex := scraper.NewExtractor(nil)
	got, err := ex.Extract(context.Background(), "", "https://example.com")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got.Title != "" || got.Summary != "" || got.Body != "" {
		t.Errorf("Extract(empty) = %+v, want all empty", got)
	}
}
