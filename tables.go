package portopt

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Row is a label/value line of a two columns table.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormatTableData returns the rows of the solution table, in display order.
//
// Sales revenue and transaction cost only make sense for a constrained model.
func FormatTableData(solver SolverType, s Solution) []Row {
	rows := []Row{{"Estimated Returns", USD(s.Return).String()}}
	if solver == CQM {
		rows = append(rows, Row{"Sales Revenue", USD(s.Sales).String()})
	}
	rows = append(rows, Row{"Purchase Cost", USD(s.Cost).String()})
	if solver == CQM {
		rows = append(rows, Row{"Transaction Cost", USD(s.TransactionCost).String()})
	}
	rows = append(rows, Row{"Variance", fmt.Sprintf("%.2f", s.Risk)})
	return rows
}

// ProblemDetails returns the rows of the problem details table.
func ProblemDetails(solver SolverType, timeLimit time.Duration) []Row {
	return []Row{
		{"Solver", solver.String()},
		{"Time Limit", fmt.Sprintf("%gs", timeLimit.Seconds())},
	}
}

// Allocation is the number of shares of a ticker in a solution.
type Allocation struct {
	Ticker string `json:"ticker"`
	Shares int    `json:"shares"`
}

// Allocations returns the positions of s sorted by ticker.
func (s Solution) Allocations() []Allocation {
	res := make([]Allocation, 0, len(s.Stocks))
	for t, n := range s.Stocks {
		res = append(res, Allocation{t, n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Ticker < res[j].Ticker })
	return res
}

// Serialize encodes v as base64 of its JSON encoding, a string safe to store
// in a browser or a text column.
func Serialize(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("cannot serialize %T: %w", v, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// Deserialize decodes a string produced by Serialize into v.
func Deserialize(s string, v any) error {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("cannot deserialize: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("cannot deserialize into %T: %w", v, err)
	}
	return nil
}
