package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/donovanhide/eventsource"
	"github.com/etnz/portopt"
	"github.com/etnz/portopt/jobs"
	"github.com/etnz/portopt/renderer"
	"github.com/etnz/portopt/store"
)

// allRuns is the event channel every run publishes to.
const allRuns = "runs"

// RunRequest holds the values of the optimization form.
type RunRequest struct {
	Sampler         portopt.SamplerType `json:"sampler"`
	TimeLimit       float64             `json:"time_limit"` // in seconds
	Budget          float64             `json:"budget"`
	TransactionCost bool                `json:"transaction_cost"`
	Period          int                 `json:"period"` // 0 for single period, 1 for multi-period
}

// DefaultRunRequest returns the initial values of the form.
func DefaultRunRequest() RunRequest {
	return RunRequest{
		Sampler:   portopt.Hybrid,
		TimeLimit: portopt.DefaultTimeLimit.Seconds(),
		Budget:    1000,
	}
}

// Config returns the optimizer configuration of the request.
//
// Multi-period runs rebalance without transaction costs.
func (r RunRequest) Config() portopt.Config {
	cfg := portopt.Config{
		Budget:    r.Budget,
		Alpha:     portopt.DefaultAlpha,
		Model:     portopt.SolverFor(r.Sampler),
		Sampler:   r.Sampler,
		TimeLimit: time.Duration(r.TimeLimit * float64(time.Second)),
	}
	if r.TransactionCost && r.Period == 0 {
		cfg.TCost = portopt.TransactionCostRate
	}
	return cfg
}

func (r RunRequest) periodName() string {
	if r.Period == 1 {
		return "multi"
	}
	return "single"
}

func (r RunRequest) validate() error {
	if r.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got %v", r.Budget)
	}
	if r.TimeLimit <= 0 {
		return fmt.Errorf("time limit must be positive, got %v", r.TimeLimit)
	}
	if r.Period != 0 && r.Period != 1 {
		return fmt.Errorf("unknown period option %d", r.Period)
	}
	return nil
}

// parseRunRequest reads a run request from a JSON body or from form values.
func parseRunRequest(req *http.Request) (RunRequest, error) {
	r := DefaultRunRequest()
	if req.Header.Get("Content-Type") == "application/json" {
		if err := decode(req, &r); err != nil {
			return r, err
		}
		return r, r.validate()
	}
	if err := req.ParseForm(); err != nil {
		return r, err
	}
	var err error
	if v := req.Form.Get("sampler"); v != "" {
		if r.Sampler, err = portopt.ParseSamplerType(v); err != nil {
			return r, err
		}
	}
	if v := req.Form.Get("time_limit"); v != "" {
		if r.TimeLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return r, fmt.Errorf("invalid time limit: %w", err)
		}
	}
	if v := req.Form.Get("budget"); v != "" {
		if r.Budget, err = strconv.ParseFloat(v, 64); err != nil {
			return r, fmt.Errorf("invalid budget: %w", err)
		}
	}
	if v := req.Form.Get("period"); v != "" {
		if r.Period, err = strconv.Atoi(v); err != nil {
			return r, fmt.Errorf("invalid period: %w", err)
		}
	}
	r.TransactionCost = req.Form.Get("transaction_cost") != ""
	return r, r.validate()
}

// Result is the outcome of a run.
type Result struct {
	ID       string               `json:"id"`
	Created  time.Time            `json:"created"`
	Request  RunRequest           `json:"request"`
	Config   portopt.Config       `json:"config"`
	Solution portopt.Solution     `json:"solution"`
	Multi    *portopt.MultiResult `json:"multi,omitempty"`
	Problem  []portopt.Row        `json:"problem"`
	Table    []portopt.Row        `json:"table"`
	Figure   *portopt.Figure      `json:"figure"`
}

// Report returns the markdown report of the result.
func (r *Result) Report(title string) string {
	return renderer.RenderReport(renderer.NewReport(title, r.Config, r.Solution, r.Multi))
}

// run optimizes the portfolio for the run 'id'.
func (s *Server) run(ctx context.Context, id string, req RunRequest) (*Result, error) {
	stocks, baseline, err := s.prices(ctx, req.Period)
	if err != nil {
		return nil, err
	}
	return Optimize(ctx, id, req, stocks, baseline, func(step portopt.Step, fig *portopt.Figure) {
		s.publish(id, "step", stepEvent{Step: step, Figure: fig})
	})
}

// Optimize runs the optimization of 'req' on the 'stocks' prices. Multi-period
// runs compare the portfolio with the first column of 'baseline' and call
// 'progress', if not nil, after every step with the updated output graph.
func Optimize(ctx context.Context, id string, req RunRequest, stocks, baseline *portopt.Table, progress func(portopt.Step, *portopt.Figure)) (*Result, error) {
	cfg := req.Config()
	res := &Result{
		ID:      id,
		Created: time.Now(),
		Request: req,
		Config:  cfg,
		Problem: portopt.ProblemDetails(cfg.Model, cfg.TimeLimit),
	}

	var err error
	if req.Period == 0 {
		log.Printf("Single period portfolio optimization run...")
		o := &portopt.SinglePeriod{Config: cfg}
		res.Solution, err = o.Run(ctx, stocks, portopt.Goal{})
		if err != nil {
			return nil, err
		}
		res.Figure = portopt.AllocationGraph(res.Solution)
		res.Table = portopt.FormatTableData(cfg.Model, res.Solution)
		return res, nil
	}

	log.Printf("Rebalancing portfolio optimization run...")
	if baseline == nil || len(baseline.Columns) == 0 {
		return nil, errors.New("multi-period runs need a baseline")
	}
	fig, err := portopt.InitOutputGraph(stocks, cfg.Budget)
	if err != nil {
		return nil, err
	}
	var values, funds []float64
	update := func(step portopt.Step) {
		values, funds = append(values, step.Value), append(funds, step.Baseline)
		if err := portopt.UpdateOutputGraph(fig, step.Index, values, funds, stocks); err != nil {
			log.Printf("cannot update the output graph: %v", err)
		}
		if progress != nil {
			progress(step, fig)
		}
	}
	o := &portopt.MultiPeriod{Config: cfg, Baseline: baseline.Columns[0]}
	res.Multi, err = o.Run(ctx, stocks, baseline, update)
	if err != nil {
		return nil, err
	}
	res.Solution = res.Multi.Steps[len(res.Multi.Steps)-1].Solution
	if res.Figure, err = portopt.OutputGraph(stocks, cfg.Budget, res.Multi); err != nil {
		return nil, err
	}
	res.Table = portopt.FormatTableData(cfg.Model, res.Solution)
	return res, nil
}

// stepEvent is the payload of "step" events.
type stepEvent struct {
	Step   portopt.Step    `json:"step"`
	Figure *portopt.Figure `json:"figure"`
}

// event is a server-sent event about a run.
type event struct {
	id, kind string
	data     []byte
}

func (e event) Id() string    { return e.id }
func (e event) Event() string { return e.kind }
func (e event) Data() string  { return string(e.data) }

// publish sends an event to the subscribers of the run and of all runs.
func (s *Server) publish(id, kind string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("cannot encode %s event: %v", kind, err)
		return
	}
	s.events.Publish([]string{id, allRuns}, event{id: id, kind: kind, data: data})
}

// replay is the event repository of a run: subscribers arriving once the
// run is over receive its "done" event.
type replay struct{ s *Server }

func (r replay) Replay(channel, _ string) chan eventsource.Event {
	out := make(chan eventsource.Event, 1)
	defer close(out)
	st := r.s.status(channel)
	if st == nil || st.Status == jobs.Running.String() {
		return out
	}
	data, err := json.Marshal(st)
	if err != nil {
		log.Printf("cannot encode done event: %v", err)
		return out
	}
	out <- event{id: channel, kind: "done", data: data}
	return out
}

// runStatus is the state of a run as returned by the api.
type runStatus struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	State  jobs.UIState `json:"state"`
	Result *Result      `json:"result,omitempty"`
}

// start starts the optimization of 'req' in the background.
func (s *Server) start(req RunRequest) (*jobs.Job, error) {
	var id string
	ready := make(chan struct{})
	j, err := s.jobs.Start(func(ctx context.Context) (any, error) {
		<-ready
		res, err := s.optimize(ctx, id, req)
		if err != nil {
			return nil, err
		}
		// recorded before the job is seen as done.
		s.mu.Lock()
		s.results[id] = res
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	id = j.ID
	s.mu.Lock()
	s.results[id] = &Result{ID: id, Created: j.Created, Request: req, Config: req.Config()}
	s.order = append(s.order, id)
	s.mu.Unlock()
	s.save(j, req, nil)
	s.events.Register(id, replay{s})
	close(ready)
	return j, nil
}

// finished records the outcome of a job.
func (s *Server) finished(j *jobs.Job) {
	s.mu.Lock()
	res := s.results[j.ID]
	s.mu.Unlock()
	if res != nil {
		s.save(j, res.Request, res)
	}
	s.publish(j.ID, "done", s.status(j.ID))
}

// save stores the run in the run history, if any.
func (s *Server) save(j *jobs.Job, req RunRequest, res *Result) {
	if s.opts.Store == nil {
		return
	}
	if j.Status() != jobs.Done {
		res = nil
	}
	r, err := StoredRun(j.ID, j.Created, j.Status().String(), req, res)
	if err != nil {
		log.Printf("cannot serialize run %s: %v", j.ID, err)
	}
	if err := s.opts.Store.Save(r); err != nil {
		log.Printf("cannot save run %s: %v", j.ID, err)
	}
}

// StoredRun returns the run history entry of a run. Its payload is the
// serialized result, if any.
func StoredRun(id string, created time.Time, status string, req RunRequest, res *Result) (store.Run, error) {
	r := store.Run{
		ID:      id,
		Created: created,
		Period:  req.periodName(),
		Sampler: req.Sampler.String(),
		Solver:  portopt.SolverFor(req.Sampler).String(),
		Budget:  req.Budget,
		Status:  status,
	}
	if res == nil {
		return r, nil
	}
	payload, err := portopt.Serialize(res)
	r.Payload = payload
	return r, err
}

// DecodeResult returns the result of a stored run.
func DecodeResult(r store.Run) (*Result, error) {
	if r.Payload == "" {
		return nil, fmt.Errorf("run %s has no result, its status is %s", r.ID, r.Status)
	}
	res := new(Result)
	if err := portopt.Deserialize(r.Payload, res); err != nil {
		return nil, fmt.Errorf("invalid result of run %s: %w", r.ID, err)
	}
	return res, nil
}

// status returns the status of the run 'id', from the jobs or from the store.
func (s *Server) status(id string) *runStatus {
	j, err := s.jobs.Get(id)
	if err == nil {
		st := &runStatus{ID: id, Status: j.Status().String()}
		st.State = jobs.NewUIState(j.Status() == jobs.Running)
		if _, err := j.Result(); err != nil {
			st.Error = err.Error()
		}
		if j.Status() == jobs.Done {
			s.mu.Lock()
			st.Result = s.results[id]
			s.mu.Unlock()
		}
		return st
	}
	if s.opts.Store == nil {
		return nil
	}
	r, err := s.opts.Store.Get(id)
	if err != nil {
		return nil
	}
	st := &runStatus{ID: id, Status: r.Status, State: jobs.NewUIState(false)}
	if r.Payload != "" {
		if st.Result, err = DecodeResult(r); err != nil {
			st.Error = err.Error()
		}
	}
	return st
}

func (s *Server) serveRuns(res http.ResponseWriter, req *http.Request) {
	var id, head string
	id, req.URL.Path = ShiftPath(req.URL.Path)
	head, req.URL.Path = ShiftPath(req.URL.Path)

	if id == "" {
		switch req.Method {
		case http.MethodGet:
			runs, err := s.history()
			if err != nil {
				http.Error(res, err.Error(), http.StatusInternalServerError)
				return
			}
			if req.URL.Query().Get("format") == "md" {
				res.Header().Set("Content-Type", "text/markdown; charset=utf-8")
				res.Write([]byte(renderer.RenderRuns(runs)))
				return
			}
			encode(res, runs)
		case http.MethodPost:
			r, err := parseRunRequest(req)
			if err != nil {
				http.Error(res, err.Error(), http.StatusBadRequest)
				return
			}
			j, err := s.start(r)
			if errors.Is(err, jobs.ErrRunInProgress) {
				http.Error(res, err.Error(), http.StatusConflict)
				return
			}
			if err != nil {
				http.Error(res, err.Error(), http.StatusInternalServerError)
				return
			}
			encodeStatus(res, http.StatusAccepted, runStatus{ID: j.ID, Status: jobs.Running.String(), State: jobs.NewUIState(true)})
		default:
			http.Error(res, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	st := s.status(id)
	if st == nil {
		http.Error(res, fmt.Sprintf("run %q not found", id), http.StatusNotFound)
		return
	}

	switch head {
	case "":
		encode(res, st)
	case "cancel":
		if req.Method != http.MethodPost {
			http.Error(res, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := s.jobs.Cancel(id); err != nil {
			http.Error(res, err.Error(), http.StatusNotFound)
			return
		}
		encode(res, runStatus{ID: id, Status: st.Status, State: jobs.NewUIState(false)})
	case "events":
		s.events.Handler(id)(res, req)
	case "report":
		s.serveReport(res, req, st)
	case "explain":
		s.serveExplain(res, req, st)
	default:
		http.Error(res, "Not Found", http.StatusNotFound)
	}
}

func (s *Server) serveReport(res http.ResponseWriter, req *http.Request, st *runStatus) {
	if st.Result == nil {
		http.Error(res, fmt.Sprintf("run %q has no result", st.ID), http.StatusConflict)
		return
	}
	md := st.Result.Report(s.opts.Config.AppTitle)
	if req.URL.Query().Get("format") == "md" {
		res.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		res.Write([]byte(md))
		return
	}
	html, err := renderer.ToHTML(md)
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.Write([]byte(html))
}

func (s *Server) serveExplain(res http.ResponseWriter, req *http.Request, st *runStatus) {
	if req.Method != http.MethodPost {
		http.Error(res, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.opts.Advisor == nil {
		http.Error(res, "explanations are not configured", http.StatusNotImplemented)
		return
	}
	if st.Result == nil {
		http.Error(res, fmt.Sprintf("run %q has no result", st.ID), http.StatusConflict)
		return
	}
	md, err := s.opts.Advisor.Explain(req.Context(), st.Result.Report(s.opts.Config.AppTitle))
	if err != nil {
		http.Error(res, err.Error(), http.StatusBadGateway)
		return
	}
	html, err := renderer.ToHTML(md)
	if err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	encode(res, map[string]string{"markdown": md, "html": html})
}

// history returns the most recent runs, most recent first.
func (s *Server) history() ([]renderer.RunSummary, error) {
	const limit = 50
	var runs []renderer.RunSummary
	if s.opts.Store != nil {
		stored, err := s.opts.Store.List(limit)
		if err != nil {
			return nil, err
		}
		for _, r := range stored {
			runs = append(runs, renderer.RunSummary{ID: r.ID, Created: r.Created, Period: r.Period, Sampler: r.Sampler, Budget: r.Budget, Status: r.Status})
		}
		return runs, nil
	}

	s.mu.Lock()
	ids := slices.Clone(s.order)
	s.mu.Unlock()
	slices.Reverse(ids)
	for _, id := range ids[:min(len(ids), limit)] {
		j, err := s.jobs.Get(id)
		if err != nil {
			continue
		}
		s.mu.Lock()
		r := s.results[id]
		s.mu.Unlock()
		runs = append(runs, renderer.RunSummary{ID: id, Created: j.Created, Period: r.Request.periodName(), Sampler: r.Request.Sampler.String(), Budget: r.Request.Budget, Status: j.Status().String()})
	}
	return runs, nil
}
