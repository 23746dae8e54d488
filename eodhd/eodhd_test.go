package eodhd

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/date"
	"github.com/google/go-cmp/cmp"
)

// fakeAPI serves daily prices for a few tickers, one quote per business day of 2010 Q1.
// Prices of ticker T on day d are base(T) + day of the month.
func fakeAPI(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	base := map[string]float64{"AAPL.US": 20, "MSFT.US": 30, "WMT.US": 40, "GSPC.INDX": 1000}
	mux := http.NewServeMux()
	mux.HandleFunc("/eod/", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Query().Get("api_token") != "test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ticker := strings.TrimPrefix(r.URL.Path, "/eod/")
		b, ok := base[ticker]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var items []string
		for d := range date.NewRange(date.New(2010, 1, 1), date.New(2010, 3, 31)).Days() {
			if d.Weekday() == 0 || d.Weekday() == 6 {
				continue
			}
			// WMT has no quote in February.
			if ticker == "WMT.US" && d.Month() == 2 {
				continue
			}
			v := b + float64(d.Day())
			adj := v
			if ticker == "GSPC.INDX" {
				adj = 0
			}
			items = append(items, fmt.Sprintf(`{"date":%q,"close":%v,"adjusted_close":%v}`, d.String(), v, adj))
		}
		fmt.Fprintf(w, "[%s]", strings.Join(items, ","))
	})
	mux.HandleFunc("/real-time/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"AAPL.US","close":189.7,"open":189.5}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *Client {
	return &Client{APIKey: "test", BaseURL: srv.URL, HTTP: srv.Client()}
}

func TestTicker(t *testing.T) {
	tests := map[string]string{
		"AAPL":    "AAPL.US",
		"^GSPC":   "GSPC.INDX",
		"nvd.f":   "NVD.F",
		" msft  ": "MSFT.US",
	}
	for in, want := range tests {
		if got := Ticker(in); got != want {
			t.Errorf("Ticker(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDaily(t *testing.T) {
	c := testClient(fakeAPI(t, nil))
	prices, err := c.Daily(context.Background(), "AAPL", date.New(2010, 1, 1), date.New(2010, 3, 31))
	if err != nil {
		t.Fatalf("Daily() unexpected error = %v", err)
	}
	if v, ok := prices.Get(date.New(2010, 1, 29)); !ok || v != 49 {
		t.Errorf("Daily()[2010-01-29] = %v, %v want 49, true", v, ok)
	}

	if _, err := c.Daily(context.Background(), "NOPE", date.New(2010, 1, 1), date.New(2010, 3, 31)); err == nil {
		t.Errorf("Daily(unknown) expected an error")
	}
}

func TestLiveData(t *testing.T) {
	c := testClient(fakeAPI(t, nil))
	stocks, names, baseline, err := c.LiveData(context.Background(), Request{
		From:     date.New(2010, 1, 1),
		To:       date.New(2010, 3, 31),
		Stocks:   []string{"AAPL", "MSFT", "WMT"},
		Baseline: []string{"^GSPC"},
	})
	if err != nil {
		t.Fatalf("LiveData() unexpected error = %v", err)
	}
	// WMT misses February.
	if diff := cmp.Diff([]string{"AAPL", "MSFT"}, names); diff != "" {
		t.Errorf("LiveData() names mismatch (-want +got):\n%s", diff)
	}
	wantDates := []date.Date{date.New(2010, 1, 29), date.New(2010, 2, 26), date.New(2010, 3, 31)}
	if diff := cmp.Diff(wantDates, stocks.Dates, cmp.Comparer(func(a, b date.Date) bool { return a == b })); diff != "" {
		t.Errorf("LiveData() dates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{49, 46, 51}, stocks.Column("AAPL")); diff != "" {
		t.Errorf("LiveData() AAPL mismatch (-want +got):\n%s", diff)
	}
	// the index has no adjusted close, the close is used instead.
	if diff := cmp.Diff([]float64{1029, 1026, 1031}, baseline.Column("^GSPC")); diff != "" {
		t.Errorf("LiveData() baseline mismatch (-want +got):\n%s", diff)
	}
}

func TestLiveDataTooFewStocks(t *testing.T) {
	c := testClient(fakeAPI(t, nil))
	_, _, _, err := c.LiveData(context.Background(), Request{
		From:   date.New(2010, 1, 1),
		To:     date.New(2010, 3, 31),
		Stocks: []string{"AAPL", "WMT"},
	})
	if !errors.Is(err, portopt.ErrTooFewStocks) {
		t.Errorf("LiveData() error = %v, want %v", err, portopt.ErrTooFewStocks)
	}
}

func TestLiveDataRandom(t *testing.T) {
	c := testClient(fakeAPI(t, nil))
	_, _, _, err := c.LiveData(context.Background(), Request{Num: 2, From: date.New(2009, 12, 31), To: date.New(2010, 3, 31)})
	if !errors.Is(err, ErrStartTooEarly) {
		t.Errorf("LiveData(2009) error = %v, want %v", err, ErrStartTooEarly)
	}

	names, err := sample(rand.New(rand.NewPCG(1, 2)), 5)
	if err != nil {
		t.Fatalf("sample() unexpected error = %v", err)
	}
	seen := make(map[string]bool)
	for _, n := range names {
		if seen[n] {
			t.Errorf("sample() drew %q twice", n)
		}
		seen[n] = true
	}
	if len(names) != 5 {
		t.Errorf("sample() drew %d names, want 5", len(names))
	}
	if _, err := sample(nil, 10000); err == nil {
		t.Errorf("sample(10000) expected an error")
	}
}

func TestLatest(t *testing.T) {
	c := testClient(fakeAPI(t, nil))
	v, err := c.Latest(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Latest() unexpected error = %v", err)
	}
	if v != 189.7 {
		t.Errorf("Latest() = %v, want 189.7", v)
	}
}

func TestDiskCache(t *testing.T) {
	var hits atomic.Int32
	srv := fakeAPI(t, &hits)
	c := &Client{
		APIKey:  "test",
		BaseURL: srv.URL,
		HTTP: &http.Client{Transport: &diskCache{
			base:   srv.Client().Transport,
			dir:    t.TempDir(),
			period: date.Daily,
			today:  func() date.Date { return date.New(2025, 1, 1) },
		}},
	}
	for range 2 {
		if _, err := c.Daily(context.Background(), "AAPL", date.New(2010, 1, 1), date.New(2010, 1, 31)); err != nil {
			t.Fatalf("Daily() unexpected error = %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server was hit %d times, want 1", got)
	}

	// errors are not cached
	c.APIKey = "wrong"
	for range 2 {
		if _, err := c.Daily(context.Background(), "AAPL", date.New(2010, 1, 1), date.New(2010, 1, 31)); err == nil {
			t.Errorf("Daily(wrong key) expected an error")
		}
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("server was hit %d times, want 3", got)
	}
}
