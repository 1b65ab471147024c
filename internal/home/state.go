package home

import (
	"sort"

	"Cocktails/internal/cocktail"
)

type State struct {
	Today     *cocktail.Cocktail  `json:"today"`
	Favorites []cocktail.Cocktail `json:"favorites"`
	Query     string              `json:"query"`
	Searching bool                `json:"searching"`
	Results   []cocktail.Cocktail `json:"results"`
	Err       cocktail.ErrorCode  `json:"error,omitempty"`
}

func initialState() State {
	return State{
		Favorites: []cocktail.Cocktail{},
		Results:   []cocktail.Cocktail{},
	}
}

func (s State) clone() State {
	out := s
	if s.Today != nil {
		c := s.Today.Clone()
		out.Today = &c
	}
	out.Favorites = cloneAll(s.Favorites)
	out.Results = cloneAll(s.Results)
	return out
}

func cloneAll(in []cocktail.Cocktail) []cocktail.Cocktail {
	out := make([]cocktail.Cocktail, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// sortByName orders favorites by name, byte-wise and case-sensitive.
func sortByName(in []cocktail.Cocktail) []cocktail.Cocktail {
	out := cloneAll(in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
