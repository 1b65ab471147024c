package repository

import (
	"context"

	"Cocktails/internal/cocktail"
)

// Favorite and Unfavorite are the only writers of the favorite flag. Unfavorite keeps the row.

func (r *Repository) Favorite(ctx context.Context, c cocktail.Cocktail) error {
	return r.Save(ctx, c.WithFavorite(true))
}

func (r *Repository) Unfavorite(ctx context.Context, c cocktail.Cocktail) error {
	return r.Save(ctx, c.WithFavorite(false))
}
