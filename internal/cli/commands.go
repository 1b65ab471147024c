package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Cocktails/internal/cocktail"
)

const readTimeout = 3 * time.Second

var ErrNotStored = errors.New("cocktail not stored")

// oneShot loads config, wires the app and runs fn with it.
func oneShot(cmd *cobra.Command, f *flags, fn func(ctx context.Context, a *app) error) error {
	cfg, err := f.loadConfig()
	if err != nil {
		return err
	}

	log := commandLogger(cfg, cmd.Name())
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		log.Debug("command failed", zap.Error(err))
		return err
	}
	return nil
}

func newTodayCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Print the pick of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oneShot(cmd, f, func(ctx context.Context, a *app) error {
				c, err := a.repo.RandomCocktail(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c)
			})
		},
	}
}

func newSearchCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd, f, func(ctx context.Context, a *app) error {
				if args[0] == "" {
					return printJSON(cmd.OutOrStdout(), []cocktail.Cocktail{})
				}
				res, err := a.repo.Search(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
}

func newFavoritesCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "favorites",
		Short: "List stored favorites by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oneShot(cmd, f, func(ctx context.Context, a *app) error {
				ctx, cancel := context.WithTimeout(ctx, readTimeout)
				defer cancel()

				sub, err := a.repo.ObserveFavorites(ctx)
				if err != nil {
					return err
				}
				defer sub.Close()

				select {
				case <-ctx.Done():
					return ctx.Err()
				case favs := <-sub.C:
					sort.SliceStable(favs, func(i, j int) bool { return favs[i].Name < favs[j].Name })
					return printJSON(cmd.OutOrStdout(), favs)
				}
			})
		},
	}
}

// newFavoriteCmd builds "favorite <id>" or "unfavorite <id>"; both act on stored records only.
func newFavoriteCmd(f *flags, on bool) *cobra.Command {
	use, short := "favorite <id>", "Mark a stored cocktail as favorite"
	if !on {
		use, short = "unfavorite <id>", "Clear the favorite flag of a stored cocktail"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd, f, func(ctx context.Context, a *app) error {
				id := args[0]
				c, err := stored(ctx, a, id)
				if err != nil {
					return err
				}

				if on {
					err = a.repo.Favorite(ctx, c)
				} else {
					err = a.repo.Unfavorite(ctx, c)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), c.WithFavorite(on))
			})
		},
	}
}

func stored(ctx context.Context, a *app, id string) (cocktail.Cocktail, error) {
	ok, err := a.repo.IsAvailable(ctx, id)
	if err != nil {
		return cocktail.Cocktail{}, err
	}
	if !ok {
		return cocktail.Cocktail{}, fmt.Errorf("%w: %s", ErrNotStored, id)
	}

	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	sub, err := a.repo.ObserveByID(ctx, id)
	if err != nil {
		return cocktail.Cocktail{}, err
	}
	defer sub.Close()

	select {
	case <-ctx.Done():
		return cocktail.Cocktail{}, ctx.Err()
	case c := <-sub.C:
		return c, nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
