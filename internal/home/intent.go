package home

import "Cocktails/internal/cocktail"

// Intent is a discrete user action on the home screen.
type Intent interface {
	intent()
}

type (
	LoadToday     struct{}
	LoadFavorites struct{}
	Select        struct{ Cocktail cocktail.Cocktail }
	QueryChanged  struct{ Text string }
	ManualSearch  struct{}
	ClearSearch   struct{}
	ClearError    struct{}
)

func (LoadToday) intent()     {}
func (LoadFavorites) intent() {}
func (Select) intent()        {}
func (QueryChanged) intent()  {}
func (ManualSearch) intent()  {}
func (ClearSearch) intent()   {}
func (ClearError) intent()    {}
