package eodhd

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/portopt/date"
	"github.com/shopspring/decimal"
)

// Daily returns the daily adjusted close prices of 'symbol' between from and to, included.
func (c *Client) Daily(ctx context.Context, symbol string, from, to date.Date) (*date.History[float64], error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"high": 684.219,
	//		"low": 648.659,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	  },
	addr := c.url("eod/"+url.PathEscape(Ticker(symbol)), "from="+from.String(), "to="+to.String())
	type Info struct {
		Date          date.Date       `json:"date"`
		Close         decimal.Decimal `json:"close"`
		AdjustedClose decimal.Decimal `json:"adjusted_close"`
	}

	content := make([]Info, 0)
	if err := c.jwget(ctx, addr, &content); err != nil {
		return nil, fmt.Errorf("cannot fetch prices of %s: %w", symbol, err)
	}

	prices := new(date.History[float64])
	for _, info := range content {
		v := info.AdjustedClose
		if v.IsZero() {
			// indices have no adjusted close
			v = info.Close
		}
		prices.Append(info.Date, v.InexactFloat64())
	}
	return prices, nil
}

// Latest returns the last traded price of 'symbol'.
func (c *Client) Latest(ctx context.Context, symbol string) (float64, error) {
	// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
	// {"code":"AAPL.US","timestamp":1700000000,"gmtoffset":0,"open":189.5,"high":190.2,"low":188.9,"close":189.7,...}
	addr := c.url("real-time/" + url.PathEscape(Ticker(symbol)))
	var jobj any
	if err := c.jwget(ctx, addr, &jobj); err != nil {
		return 0, fmt.Errorf("cannot fetch the quote of %s: %w", symbol, err)
	}
	const path = "$.close"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return 0, fmt.Errorf("error parsing %q: %q %w", symbol, path, err)
	}
	// because jsonpath is never clear about wheter it returns a list of 1 answer, or a single answer:
	// by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	val, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("error parsing %q: %q %s %v", symbol, path, "not a float", jval)
	}
	return val, nil
}

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code          string  `json:"Code"`
	Exchange      string  `json:"Exchange"`
	Name          string  `json:"Name"`
	Type          string  `json:"Type"`
	Country       string  `json:"Country"`
	Currency      string  `json:"Currency"`
	ISIN          string  `json:"ISIN"`
	PreviousClose float64 `json:"previousClose"`
}

// Search searches for securities matching 'term'.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	addr := c.url("search/" + url.PathEscape(term))
	var results []SearchResult
	if err := c.jwget(ctx, addr, &results); err != nil {
		return nil, err
	}
	return results, nil
}
