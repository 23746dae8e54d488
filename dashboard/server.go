// Package dashboard serves the portfolio optimization web dashboard.
//
// The dashboard plots the historical stock data, runs single or
// multi-period optimizations in the background, and shows their results.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/donovanhide/eventsource"
	"github.com/etnz/portopt"
	"github.com/etnz/portopt/eodhd"
	"github.com/etnz/portopt/jobs"
	"github.com/etnz/portopt/store"
)

//go:embed assets
var assets embed.FS

// LiveSource loads live prices, see eodhd.Client.
type LiveSource interface {
	LiveData(ctx context.Context, req eodhd.Request) (stocks *portopt.Table, names []string, baseline *portopt.Table, err error)
}

// Explainer comments a markdown report, see agent.Advisor.
type Explainer interface {
	Explain(ctx context.Context, report string) (string, error)
}

// Options configures a Server.
type Options struct {
	Config   Config
	DataFile string       // price CSV, the embedded sample data when empty
	Assets   string       // directory the theme stylesheet is written to, if any
	Live     LiveSource   // nil disables live data
	Store    *store.Store // nil keeps the run history in memory only
	Advisor  Explainer    // nil disables explanations
	Debug    bool         // log requests and reload the data file when it changes
}

// Server is the dashboard http server.
type Server struct {
	opts   Options
	data   *Data
	jobs   *jobs.Manager
	events *eventsource.Server
	index  *template.Template
	static http.Handler

	cancel    context.CancelFunc
	closeOnce sync.Once

	// optimize runs an optimization, replaced in tests.
	optimize func(ctx context.Context, id string, req RunRequest) (*Result, error)

	mu      sync.Mutex
	results map[string]*Result
	order   []string // run ids in creation order
}

// New returns a dashboard server.
func New(opts Options) (*Server, error) {
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}
	d, err := LoadData(opts.DataFile)
	if err != nil {
		return nil, err
	}
	if opts.Assets != "" {
		if err := opts.Config.WriteThemeCSS(opts.Assets); err != nil {
			return nil, err
		}
	}
	index, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:    opts,
		data:    d,
		jobs:    jobs.NewManager(ctx),
		events:  eventsource.NewServer(),
		index:   index,
		static:  http.FileServer(http.FS(static)),
		cancel:  cancel,
		results: make(map[string]*Result),
	}
	s.optimize = s.run
	s.jobs.OnFinish = s.finished
	// late subscribers of a run get its final status.
	s.events.ReplayAll = true
	return s, nil
}

// Close cancels the running optimization and closes the event streams.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		if j := s.jobs.Active(); j != nil {
			<-j.Done()
		}
		s.events.Close()
	})
}

// Handler returns the http handler of the dashboard, logging requests in debug mode.
func (s *Server) Handler() http.Handler {
	if s.opts.Debug {
		return NewHTTPLogger("HTTP: ", os.Stdout).Handler(s)
	}
	return s
}

// ShiftPath splits off the first component of p, which will be cleaned of
// relative components before processing. head will never contain a slash and
// tail will always be a rooted path without trailing slash.
func ShiftPath(p string) (head, tail string) {
	p = path.Clean("/" + p)
	i := strings.Index(p[1:], "/") + 1
	if i <= 0 {
		return p[1:], "/"
	}
	return p[1:i], p[i:]
}

// Top level handler for http requests
func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	if req.URL.Path == "/" {
		s.serveIndex(res, req)
		return
	}

	var head string
	head, req.URL.Path = ShiftPath(req.URL.Path)
	switch head {
	case "assets":
		if req.URL.Path == "/"+ThemeFile {
			res.Header().Set("Content-Type", "text/css; charset=utf-8")
			res.Write([]byte(s.opts.Config.ThemeCSS()))
			return
		}
		s.static.ServeHTTP(res, req)
	case "api":
		s.serveAPI(res, req)
	case "about":
		s.serveAbout(res, req)
	default:
		http.Error(res, "Not Found", http.StatusNotFound)
	}
}

func (s *Server) serveIndex(res http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(res, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.index.Execute(res, s.opts.Config); err != nil {
		log.Printf("cannot render index: %v", err)
	}
}

func (s *Server) serveAPI(res http.ResponseWriter, req *http.Request) {
	var head string
	head, req.URL.Path = ShiftPath(req.URL.Path)
	switch head {
	case "input-graph":
		s.serveInputGraph(res, req)
	case "runs":
		s.serveRuns(res, req)
	case "events":
		s.events.Handler(allRuns)(res, req)
	case "state":
		encode(res, jobs.NewUIState(s.jobs.Active() != nil))
	case "collapse":
		s.serveCollapse(res, req)
	default:
		http.Error(res, "Not Found", http.StatusNotFound)
	}
}

func encode(res http.ResponseWriter, v any) { encodeStatus(res, http.StatusOK, v) }

func encodeStatus(res http.ResponseWriter, code int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(code)
	if err := json.NewEncoder(res).Encode(v); err != nil {
		log.Printf("cannot encode response: %v", err)
	}
}

func decode(req *http.Request, v any) error {
	return json.NewDecoder(req.Body).Decode(v)
}
