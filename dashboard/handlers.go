package dashboard

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/etnz/portopt"
	"github.com/etnz/portopt/date"
	"github.com/etnz/portopt/docs"
	"github.com/etnz/portopt/eodhd"
	"github.com/etnz/portopt/renderer"
)

// errNoLiveData is returned when live data is requested without a live source.
var errNoLiveData = errors.New("live data is not available, set " + eodhd.APIKeyEnv)

// LiveRequest is the live data plotted and optimized by the dashboard.
func LiveRequest() eodhd.Request {
	return eodhd.Request{
		From:     date.New(2010, 1, 1),
		To:       date.New(2012, 12, 31),
		Stocks:   []string{"AAPL", "MSFT", "AAL", "WMT"},
		Baseline: []string{"^GSPC"},
	}
}

// prices returns the stock prices and the baseline fund for a period option:
// 0 for the sample data, 1 for live data.
func (s *Server) prices(ctx context.Context, period int) (stocks, baseline *portopt.Table, err error) {
	if period == 0 {
		t := s.data.Table()
		return t, SampleFund(t), nil
	}
	if s.opts.Live == nil {
		return nil, nil, errNoLiveData
	}
	stocks, _, baseline, err = s.opts.Live.LiveData(ctx, LiveRequest())
	return stocks, baseline, err
}

func (s *Server) serveInputGraph(res http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(res, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	period := 0
	if req.URL.Query().Get("period") == "1" {
		period = 1
	}
	stocks, _, err := s.prices(req.Context(), period)
	if errors.Is(err, errNoLiveData) {
		http.Error(res, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	if period == 0 {
		encode(res, portopt.HistoricalGraph(stocks))
		return
	}
	// live prices are business month ends, plotted with month ticks and hover.
	encode(res, portopt.InputGraph(stocks))
}

// ToggleCollapsed adds or removes the "collapsed" class of a class list.
func ToggleCollapsed(classes string) string {
	fields := strings.Fields(classes)
	for i, c := range fields {
		if c == "collapsed" {
			return strings.Join(append(fields[:i], fields[i+1:]...), " ")
		}
	}
	if classes == "" {
		return "collapsed"
	}
	return classes + " collapsed"
}

func (s *Server) serveCollapse(res http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(res, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		ClassName string `json:"className"`
	}
	if err := decode(req, &body); err != nil {
		http.Error(res, err.Error(), http.StatusBadRequest)
		return
	}
	body.ClassName = ToggleCollapsed(body.ClassName)
	encode(res, body)
}

var aboutPage = template.Must(template.New("about").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<link rel="stylesheet" href="/assets/custom_00_theme.css"><link rel="stylesheet" href="/assets/style.css"></head>
<body class="about">{{.Body}}</body></html>
`))

func (s *Server) serveAbout(res http.ResponseWriter, req *http.Request) {
	topic := strings.Trim(req.URL.Path, "/")
	if topic == "" {
		topic = "dashboard"
	}
	md, err := docs.GetTopic(topic)
	if err != nil {
		http.Error(res, err.Error(), http.StatusNotFound)
		return
	}
	body, err := renderer.ToHTML(md)
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	aboutPage.Execute(res, struct {
		Title string
		Body  template.HTML
	}{s.opts.Config.AppTitle, template.HTML(body)})
}
