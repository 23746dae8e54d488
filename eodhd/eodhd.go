// Package eodhd fetches historical and real-time stock prices from the EOD
// Historical Data API (https://eodhd.com).
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/etnz/portopt/date"
)

// APIKeyEnv is the environment variable holding the default API key.
const APIKeyEnv = "EODHD_API_KEY"

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Client accesses the EODHD API.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// New returns a client whose responses are cached on disk in 'cacheDir' for
// the day. An empty apiKey is read from the environment, an empty cacheDir
// means the system temporary directory.
func New(apiKey, cacheDir string) *Client {
	return NewWithCache(apiKey, cacheDir, date.Daily)
}

// NewWithCache is like New, with responses cached until the end of the
// current 'period'.
func NewWithCache(apiKey, cacheDir string, period date.Period) *Client {
	if apiKey == "" {
		apiKey = os.Getenv(APIKeyEnv)
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: DefaultBaseURL,
		HTTP:    newCachingClient(cacheDir, period),
	}
}

// Ticker returns the EODHD ticker of a Yahoo-like symbol.
//
// Symbols without an exchange are US stocks, and indices ("^GSPC") live in the
// virtual INDX exchange.
func Ticker(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if rest, ok := strings.CutPrefix(symbol, "^"); ok {
		return rest + ".INDX"
	}
	if !strings.Contains(symbol, ".") {
		return symbol + ".US"
	}
	return symbol
}

// url returns the address of an API endpoint for 'path' with extra query parameters.
func (c *Client) url(path string, params ...string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	q := append([]string{"fmt=json", "api_token=" + c.APIKey}, params...)
	return fmt.Sprintf("%s/%s?%s", strings.TrimSuffix(base, "/"), path, strings.Join(q, "&"))
}

// jwget performs an HTTP GET request and unmarshals the JSON response into the provided data structure.
func (c *Client) jwget(ctx context.Context, addr string, data any) error {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", req.URL.Host, req.URL.Path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, data)
}
