package eodhd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/data"
	"github.com/etnz/portopt/date"
	"golang.org/x/sync/errgroup"
)

// ErrStartTooEarly is returned when random stocks are requested before the
// first date of the symbols list.
var ErrStartTooEarly = errors.New("start date must be >= '2010-01-01' when using option 'num'")

// earliestRandomStart is the first date random stocks are guaranteed to be quoted.
var earliestRandomStart = date.New(2010, 1, 1)

// maxConcurrentFetches bounds the number of simultaneous API requests.
const maxConcurrentFetches = 4

// Request describes the live data to load.
type Request struct {
	Num      int      // number of random stocks to draw, 0 to use Stocks
	From, To date.Date
	Stocks   []string
	Baseline []string
	Rand     *rand.Rand // source of random stocks, nil for the global one
}

// LiveData fetches the monthly prices of the requested stocks and baselines.
//
// Daily prices are resampled to the last price of each business month.
// Stocks with missing months are dropped, and at least two must remain.
// The baseline table is aligned on the months of the stock table.
func (c *Client) LiveData(ctx context.Context, req Request) (stocks *portopt.Table, names []string, baseline *portopt.Table, err error) {
	log.Printf("Loading live data from the web from EODHD from %v to %v...", req.From, req.To)

	names = req.Stocks
	if req.Num > 0 {
		if req.From.Before(earliestRandomStart) {
			return nil, nil, nil, ErrStartTooEarly
		}
		names, err = sample(req.Rand, req.Num)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	histories, err := c.monthly(ctx, names, req.From, req.To)
	if err != nil {
		return nil, nil, nil, err
	}
	stocks, err = portopt.NewTableFromHistories(names, histories)
	if err != nil {
		return nil, nil, nil, err
	}
	if dropped := stocks.DropInvalid(); len(dropped) > 0 {
		log.Printf("The following tickers are dropped due to invalid data: %v", dropped)
	}
	if len(stocks.Columns) < 2 {
		return nil, nil, nil, portopt.ErrTooFewStocks
	}
	names = stocks.Columns

	bh, err := c.monthly(ctx, req.Baseline, req.From, req.To)
	if err != nil {
		return nil, nil, nil, err
	}
	baseline = portopt.NewTable(stocks.Dates, req.Baseline...)
	for col, h := range bh {
		for row, d := range stocks.Dates {
			if v, ok := h.ValueAsOf(d); ok {
				baseline.Set(row, col, v)
			}
		}
	}
	return stocks, names, baseline, nil
}

// monthly fetches the daily prices of all symbols concurrently and resamples them monthly.
func (c *Client) monthly(ctx context.Context, symbols []string, from, to date.Date) ([]*date.History[float64], error) {
	res := make([]*date.History[float64], len(symbols))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, s := range symbols {
		g.Go(func() error {
			daily, err := c.Daily(ctx, s, from, to)
			if err != nil {
				return err
			}
			res[i] = date.ResampleLast(daily, date.Date.BusinessMonthEnd)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// sample draws n distinct symbols from the embedded symbols list.
func sample(rng *rand.Rand, n int) ([]string, error) {
	symbols, err := data.Symbols()
	if err != nil {
		return nil, err
	}
	if n > len(symbols) {
		return nil, fmt.Errorf("cannot draw %d stocks out of %d symbols", n, len(symbols))
	}
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(symbols), func(i, j int) { symbols[i], symbols[j] = symbols[j], symbols[i] })
	return symbols[:n], nil
}
