package jobs

// UIState is the state of the dashboard controls while a run is in progress
// or not.
type UIState struct {
	CancelButtonClass string `json:"cancelButtonClass"`
	RunButtonClass    string `json:"runButtonClass"`
	ResultsDisabled   bool   `json:"resultsDisabled"`
	ResultsLabel      string `json:"resultsLabel"`
	Tab               string `json:"tab"`
	RunInProgress     bool   `json:"runInProgress"`
}

// hidden is the css class hiding an element.
const hidden = "display-none"

// NewUIState returns the controls state for a running, or idle, dashboard.
//
// While running, the run button is replaced by the cancel button and the
// results tab is disabled. The input tab is shown in both cases.
func NewUIState(running bool) UIState {
	if running {
		return UIState{
			CancelButtonClass: "",
			RunButtonClass:    hidden,
			ResultsDisabled:   true,
			ResultsLabel:      "Loading...",
			Tab:               "input-tab",
			RunInProgress:     true,
		}
	}
	return UIState{
		CancelButtonClass: hidden,
		RunButtonClass:    "",
		ResultsDisabled:   false,
		ResultsLabel:      "Results",
		Tab:               "input-tab",
		RunInProgress:     false,
	}
}
