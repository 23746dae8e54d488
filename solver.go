package portopt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SamplerType selects the algorithm used to search the share lattice.
type SamplerType int

const (
	// Hybrid anneals the model from random restarts, like a hybrid quantum-classical sampler.
	Hybrid SamplerType = iota
	// Classical explores the model exhaustively with branch and bound.
	Classical
)

func (s SamplerType) String() string {
	switch s {
	case Hybrid:
		return "Quantum Hybrid"
	case Classical:
		return "Classical"
	default:
		return fmt.Sprintf("SamplerType(%d)", int(s))
	}
}

// ParseSamplerType accepts the integer value ("0", "1") or a name ("hybrid", "classical").
func ParseSamplerType(s string) (SamplerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "hybrid", "quantum hybrid", "quantum-hybrid":
		return Hybrid, nil
	case "1", "classical":
		return Classical, nil
	}
	return Hybrid, fmt.Errorf("unknown sampler type %q, want one of 0 (hybrid) or 1 (classical)", s)
}

func (s SamplerType) MarshalJSON() ([]byte, error) { return json.Marshal(int(s)) }

// UnmarshalJSON accepts both the int and the name.
func (s *SamplerType) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	var str string
	switch v := v.(type) {
	case float64:
		str = strconv.Itoa(int(v))
	case string:
		str = v
	default:
		return fmt.Errorf("invalid sampler type %s", b)
	}
	p, err := ParseSamplerType(str)
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// SolverType selects how the budget enters the model.
type SolverType int

const (
	// CQM is a constrained quadratic model: the budget is a hard constraint.
	CQM SolverType = iota
	// DQM is a discrete quadratic model: the budget is a penalty in the objective.
	DQM
)

func (s SolverType) String() string {
	switch s {
	case CQM:
		return "CQM"
	case DQM:
		return "DQM"
	default:
		return fmt.Sprintf("SolverType(%d)", int(s))
	}
}

// ParseSolverType parses "cqm" or "dqm".
func ParseSolverType(s string) (SolverType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CQM", "0":
		return CQM, nil
	case "DQM", "1":
		return DQM, nil
	}
	return CQM, fmt.Errorf("unknown solver type %q, want CQM or DQM", s)
}

func (s SolverType) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *SolverType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	p, err := ParseSolverType(str)
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// SolverFor returns the model type a sampler runs on in the dashboard: the
// hybrid sampler runs the constrained model, the classical one the discrete model.
func SolverFor(s SamplerType) SolverType {
	if s == Hybrid {
		return CQM
	}
	return DQM
}
