package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MJ-API-Development/NewsAPI/internal/domain/entity"
	"github.com/MJ-API-Development/NewsAPI/internal/infra/scraper"
)

const mostActiveHTML = `<html><body>
<table>
<thead><tr><th>Symbol</th><th>Name</th></tr></thead>
<tbody>
<tr><td> aapl </td><td>Apple Inc.</td><td>182.52</td></tr>
<tr><td>TSLA</td><td>Tesla, Inc.</td><td>243.84</td></tr>
<tr><td></td><td>No Symbol Co</td></tr>
<tr><td>MSFT</td></tr>
</tbody>
</table>
<table><tbody><tr><td>WRONG</td><td>Second Table Corp</td></tr></tbody></table>
</body></html>`

type stubLister struct {
	tickers []entity.Ticker
	err     error
	calls   int
}

func (s *stubLister) ListStocks(_ context.Context, _ string) ([]entity.Ticker, error) {
	s.calls++
	return s.tickers, s.err
}

func TestDirectory_Tickers_ParsesFirstTbody(t *testing.T) {
	pages := &stubPages{bodies: map[string]string{"page": mostActiveHTML}}
	dir := scraper.NewDirectory(pages, "page", time.Hour, nil)

	got := dir.Tickers(context.Background())
	if len(got) != 2 {
		t.Fatalf("tickers length = %d, want 2: %v", len(got), got)
	}
	if got[0].Symbol != "AAPL" || got[0].Name != "Apple Inc." {
		t.Errorf("got[0] = %+v, want AAPL / Apple Inc.", got[0])
	}
	if got[1].Symbol != "TSLA" || got[1].Name != "Tesla, Inc." {
		t.Errorf("got[1] = %+v, want TSLA / Tesla, Inc.", got[1])
	}
}

func TestDirectory_Tickers_CachedWithinCadence(t *testing.T) {
	pages := &stubPages{bodies: map[string]string{"page": mostActiveHTML}}
	dir := scraper.NewDirectory(pages, "page", time.Hour, nil)

	dir.Tickers(context.Background())
	dir.Tickers(context.Background())

	if len(pages.calls) != 1 {
		t.Errorf("page fetches = %d, want 1 within cadence", len(pages.calls))
	}
}

func TestDirectory_Refresh_FallsBackToExchange(t *testing.T) {
	pages := &stubPages{err: errors.New("blocked")}
	fallback := &stubLister{tickers: []entity.Ticker{{Symbol: "IBM", Name: "IBM Corp"}}}
	dir := scraper.NewDirectory(pages, "page", time.Hour, fallback)

	got := dir.Tickers(context.Background())
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	if len(got) != 1 || got[0].Symbol != "IBM" {
		t.Errorf("tickers = %v, want fallback listing", got)
	}
}

func TestDirectory_Refresh_KeepsPreviousSnapshotOnFailure(t *testing.T) {
	pages := &stubPages{bodies: map[string]string{"page": mostActiveHTML}}
	dir := scraper.NewDirectory(pages, "page", time.Hour, nil)

	first := dir.Tickers(context.Background())
	if len(first) != 2 {
		t.Fatalf("seed tickers length = %d, want 2", len(first))
	}

	pages.bodies["page"] = ""
	pages.err = errors.New("blocked")
	dir.Refresh(context.Background())

	second := dir.Tickers(context.Background())
	if len(second) != 2 {
		t.Errorf("tickers after failed refresh = %v, want previous snapshot kept", second)
	}
}

func TestDirectory_Mapping(t *testing.T) {
	pages := &stubPages{bodies: map[string]string{"page": mostActiveHTML}}
	dir := scraper.NewDirectory(pages, "page", time.Hour, nil)

	m := dir.Mapping(context.Background())
	if m["AAPL"] != "Apple Inc." {
		t.Errorf(`Mapping()["AAPL"] = %q, want "Apple Inc."`, m["AAPL"])
	}
}

func TestExchangeClient_ListStocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stocks/code/US" {
			t.Errorf("path = %q, want /stocks/code/US", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key-123" {
			t.Errorf("api_key = %q, want key-123", r.URL.Query().Get("api_key"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": true, "payload": [
			{"code": "aapl", "name": "Apple Inc."},
			{"code": "", "name": "Nameless"},
			{"code": "MSFT", "name": "Microsoft Corporation"}
		]}`))
	}))
	defer server.Close()

	client := scraper.NewExchangeClient(server.Client(), server.URL+"/exchanges", server.URL+"/stocks/code", "key-123")
	got, err := client.ListStocks(context.Background(), "US")
	if err != nil {
		t.Fatalf("ListStocks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("stocks length = %d, want 2: %v", len(got), got)
	}
	if got[0].Symbol != "AAPL" || got[1].Symbol != "MSFT" {
		t.Errorf("symbols = %v, want [AAPL MSFT]", got)
	}
}

func TestExchangeClient_ListStocks_StatusFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": false, "payload": []}`))
	}))
	defer server.Close()

	client := scraper.NewExchangeClient(server.Client(), server.URL, server.URL, "k")
	got, err := client.ListStocks(context.Background(), "US")
	if err != nil {
		t.Fatalf("ListStocks() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("stocks = %v, want empty on status false", got)
	}
}

func TestExchangeClient_ListStocks_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := scraper.NewExchangeClient(server.Client(), server.URL, server.URL, "k")
	if _, err := client.ListStocks(context.Background(), "US"); err == nil {
		t.Error("ListStocks() error = nil, want status error")
	}
}
