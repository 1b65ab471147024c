package cocktail

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field names of the external catalog schema.
const (
	keyID           = "idDrink"
	keyName         = "strDrink"
	keyTags         = "strTags"
	keyCategory     = "strCategory"
	keyAlcoholic    = "strAlcoholic"
	keyGlass        = "strGlass"
	keyInstructions = "strInstructions"
	keyThumb        = "strDrinkThumb"
	keyImageSource  = "strImageSource"
	keyIngredient   = "strIngredient"
	keyMeasure      = "strMeasure"
)

// Response is the list-wrapped payload returned by both catalog endpoints.
type Response struct {
	Drinks []Drink `json:"drinks"`
}

// Drink is one catalog payload. Absent and null fields are nil.
type Drink struct {
	ID           *string
	Name         *string
	Tags         *string
	Category     *string
	Alcoholic    *string
	Glass        *string
	Instructions *string
	Thumb        *string
	ImageSource  *string
	Ingredients  [MaxIngredients]*string
	Measures     [MaxIngredients]*string
}

func (d *Drink) fields() map[string]**string {
	m := map[string]**string{
		keyID:           &d.ID,
		keyName:         &d.Name,
		keyTags:         &d.Tags,
		keyCategory:     &d.Category,
		keyAlcoholic:    &d.Alcoholic,
		keyGlass:        &d.Glass,
		keyInstructions: &d.Instructions,
		keyThumb:        &d.Thumb,
		keyImageSource:  &d.ImageSource,
	}
	for i := 0; i < MaxIngredients; i++ {
		n := strconv.Itoa(i + 1)
		m[keyIngredient+n] = &d.Ingredients[i]
		m[keyMeasure+n] = &d.Measures[i]
	}
	return m
}

func (d *Drink) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*d = Drink{}
	for key, dst := range d.fields() {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		*dst = s
	}
	return nil
}

func (d Drink) MarshalJSON() ([]byte, error) {
	out := make(map[string]*string, 9+2*MaxIngredients)
	for key, src := range d.fields() {
		out[key] = *src
	}
	return json.Marshal(out)
}

// DecodeResponse turns a catalog payload into records. A null drink list is an empty result.
func DecodeResponse(b []byte) ([]Cocktail, error) {
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	out := make([]Cocktail, 0, len(resp.Drinks))
	for i, d := range resp.Drinks {
		c, err := d.Cocktail()
		if err != nil {
			return nil, fmt.Errorf("drink %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Cocktail validates the mandatory fields and folds the parallel slots into an ordered sequence.
func (d Drink) Cocktail() (Cocktail, error) {
	required := []struct {
		key string
		v   *string
	}{
		{keyID, d.ID},
		{keyName, d.Name},
		{keyCategory, d.Category},
		{keyAlcoholic, d.Alcoholic},
		{keyGlass, d.Glass},
		{keyInstructions, d.Instructions},
		{keyThumb, d.Thumb},
	}
	for _, f := range required {
		if f.v == nil {
			return Cocktail{}, fmt.Errorf("%w: missing %s", ErrMalformedRecord, f.key)
		}
	}

	return Cocktail{
		ID:           *d.ID,
		Name:         *d.Name,
		Tags:         splitTags(d.Tags),
		Category:     *d.Category,
		Type:         *d.Alcoholic,
		GlassType:    *d.Glass,
		Instructions: *d.Instructions,
		ThumbnailImg: *d.Thumb,
		FullImage:    copyString(d.ImageSource),
		Ingredients:  foldIngredients(d.Ingredients, d.Measures),
	}, nil
}

// DrinkFrom renders c in the catalog schema.
func DrinkFrom(c Cocktail) Drink {
	d := Drink{
		ID:           strPtr(c.ID),
		Name:         strPtr(c.Name),
		Tags:         joinTags(c.Tags),
		Category:     strPtr(c.Category),
		Alcoholic:    strPtr(c.Type),
		Glass:        strPtr(c.GlassType),
		Instructions: strPtr(c.Instructions),
		Thumb:        strPtr(c.ThumbnailImg),
		ImageSource:  copyString(c.FullImage),
	}
	d.Ingredients, d.Measures = unfoldIngredients(c.Ingredients)
	return d
}

func splitTags(s *string) []string {
	if s == nil || *s == "" {
		return []string{}
	}
	return strings.Split(*s, ",")
}

func joinTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	return strPtr(strings.Join(tags, ","))
}

func foldIngredients(names, measures [MaxIngredients]*string) []Ingredient {
	out := []Ingredient{}
	for i := 0; i < MaxIngredients; i++ {
		if names[i] == nil {
			continue
		}
		ing := Ingredient{Name: *names[i]}
		if measures[i] != nil {
			ing.Measure = *measures[i]
		}
		out = append(out, ing)
	}
	return out
}

// unfoldIngredients clears every slot past len(ings). Callers check the limit first.
func unfoldIngredients(ings []Ingredient) (names, measures [MaxIngredients]*string) {
	for i := 0; i < MaxIngredients && i < len(ings); i++ {
		names[i] = strPtr(ings[i].Name)
		measures[i] = strPtr(ings[i].Measure)
	}
	return names, measures
}

func strPtr(s string) *string { return &s }

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	return strPtr(*s)
}
