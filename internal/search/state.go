package search

import (
	"fmt"

	"Cocktails/internal/cocktail"
)

type Phase uint8

const (
	Idle Phase = iota
	Pending
	Resolved
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is one published snapshot. Results survive a failed search; Err is set only in Failed.
type State struct {
	Phase      Phase               `json:"phase"`
	Query      string              `json:"query"`
	Generation uint64              `json:"generation"`
	Searching  bool                `json:"searching"`
	Results    []cocktail.Cocktail `json:"results"`
	Err        cocktail.ErrorCode  `json:"error,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Results = make([]cocktail.Cocktail, len(s.Results))
	for i, c := range s.Results {
		out.Results[i] = c.Clone()
	}
	return out
}
