package cocktail

import "fmt"

// Row is the durable layout of a record: one row per id, parallel ingredient/measure columns.
type Row struct {
	ID           string
	Name         string
	Tags         *string
	Category     string
	Type         string
	GlassType    string
	Instructions string
	ThumbnailImg string
	ImageSource  *string
	Ingredients  [MaxIngredients]*string
	Measures     [MaxIngredients]*string
	IsFavorite   bool
}

// EncodeRow re-derives all ingredient slots from c.Ingredients.
func EncodeRow(c Cocktail) (Row, error) {
	if c.ID == "" {
		return Row{}, fmt.Errorf("%w: empty id", ErrMalformedRecord)
	}
	if len(c.Ingredients) > MaxIngredients {
		return Row{}, fmt.Errorf("%w: %d ingredients, limit is %d", ErrMalformedRecord, len(c.Ingredients), MaxIngredients)
	}

	r := Row{
		ID:           c.ID,
		Name:         c.Name,
		Tags:         joinTags(c.Tags),
		Category:     c.Category,
		Type:         c.Type,
		GlassType:    c.GlassType,
		Instructions: c.Instructions,
		ThumbnailImg: c.ThumbnailImg,
		ImageSource:  copyString(c.FullImage),
		IsFavorite:   c.IsFavorite,
	}
	r.Ingredients, r.Measures = unfoldIngredients(c.Ingredients)
	return r, nil
}

// DecodeRow never fails: rows only enter the store through EncodeRow.
func DecodeRow(r Row) Cocktail {
	return Cocktail{
		ID:           r.ID,
		Name:         r.Name,
		Tags:         splitTags(r.Tags),
		Category:     r.Category,
		Type:         r.Type,
		GlassType:    r.GlassType,
		Instructions: r.Instructions,
		ThumbnailImg: r.ThumbnailImg,
		FullImage:    copyString(r.ImageSource),
		Ingredients:  foldIngredients(r.Ingredients, r.Measures),
		IsFavorite:   r.IsFavorite,
	}
}

func DecodeRows(rows []Row) []Cocktail {
	out := make([]Cocktail, 0, len(rows))
	for _, r := range rows {
		out = append(out, DecodeRow(r))
	}
	return out
}
