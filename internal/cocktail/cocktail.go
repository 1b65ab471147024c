package cocktail

// MaxIngredients is the number of ingredient/measure slots the catalog schema carries.
const MaxIngredients = 15

type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

type Cocktail struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Tags         []string     `json:"tags"`
	Category     string       `json:"category"`
	Type         string       `json:"type"`
	GlassType    string       `json:"glass_type"`
	Instructions string       `json:"instructions"`
	ThumbnailImg string       `json:"thumbnail_img"`
	FullImage    *string      `json:"full_image,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	IsFavorite   bool         `json:"is_favorite"`
}

// Clone returns a deep copy so the slot or row holding c cannot be mutated through the result.
func (c Cocktail) Clone() Cocktail {
	out := c
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
		if len(c.Tags) == 0 {
			out.Tags = []string{}
		}
	}
	if c.Ingredients != nil {
		out.Ingredients = append([]Ingredient(nil), c.Ingredients...)
		if len(c.Ingredients) == 0 {
			out.Ingredients = []Ingredient{}
		}
	}
	if c.FullImage != nil {
		v := *c.FullImage
		out.FullImage = &v
	}
	return out
}

// WithFavorite returns a copy of c with the favorite flag set to v.
func (c Cocktail) WithFavorite(v bool) Cocktail {
	out := c.Clone()
	out.IsFavorite = v
	return out
}
