// Package data embeds the sample datasets shipped with the dashboard.
package data

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
)

// basicData holds monthly closing prices of AAPL, MSFT, AAL and WMT from 2010 to 2012.
// It is illustrative sample data, not a market record.
//
//go:embed basic_data.csv
var basicData []byte

//go:embed stocks_symbols.csv
var stocksSymbols []byte

// BasicData returns a reader on the sample price CSV.
func BasicData() io.Reader { return bytes.NewReader(basicData) }

// Symbols returns the tickers of the symbols list, used to draw random stocks.
func Symbols() ([]string, error) {
	records, err := csv.NewReader(bytes.NewReader(stocksSymbols)).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot read stocks symbols: %w", err)
	}
	col := -1
	for i, h := range records[0] {
		if h == "Symbol" {
			col = i
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("stocks symbols have no %q column", "Symbol")
	}
	symbols := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		symbols = append(symbols, rec[col])
	}
	return symbols, nil
}
