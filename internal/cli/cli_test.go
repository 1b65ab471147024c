package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Cocktails/internal/cocktail"
	"Cocktails/internal/config"
)

const margarita = `{"drinks":[{
	"idDrink":"11007","strDrink":"Margarita","strTags":"IBA,ContemporaryClassic",
	"strCategory":"Ordinary Drink","strAlcoholic":"Alcoholic","strGlass":"Cocktail glass",
	"strInstructions":"Rub the rim of the glass with the lime slice.",
	"strDrinkThumb":"https://example.com/margarita.jpg",
	"strIngredient1":"Tequila","strMeasure1":"1 1/2 oz",
	"strIngredient2":"Triple sec","strMeasure2":"1/2 oz"
}]}`

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Get("/random.php", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(margarita))
	})
	r.Get("/search.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("s") == "none" {
			_, _ = w.Write([]byte(`{"drinks":null}`))
			return
		}
		_, _ = w.Write([]byte(margarita))
	})

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CATALOG_URL", "")
	t.Setenv("LOG_LEVEL", "")

	ts := newCatalogTS(t)
	base := []string{
		"--env-file", filepath.Join(t.TempDir(), "none.env"),
		"--catalog-url", ts.URL,
		"--log-level", "error",
	}

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, base...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestToday(t *testing.T) {
	out, err := run(t, "today")
	require.NoError(t, err)

	var c cocktail.Cocktail
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, "11007", c.ID)
	assert.Equal(t, []string{"IBA", "ContemporaryClassic"}, c.Tags)
	assert.Len(t, c.Ingredients, 2)
}

func TestSearch(t *testing.T) {
	out, err := run(t, "search", "marg")
	require.NoError(t, err)

	var res []cocktail.Cocktail
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res, 1)
	assert.Equal(t, "Margarita", res[0].Name)
}

func TestSearch_NoResults(t *testing.T) {
	out, err := run(t, "search", "none")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestFavorites_EmptyStore(t *testing.T) {
	out, err := run(t, "favorites")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestFavorite_NotStored(t *testing.T) {
	_, err := run(t, "favorite", "11007")
	require.ErrorIs(t, err, ErrNotStored)

	_, err = run(t, "unfavorite", "11007")
	require.ErrorIs(t, err, ErrNotStored)
}

func TestSearch_RequiresQuery(t *testing.T) {
	_, err := run(t, "search")
	require.Error(t, err)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ADDR", ":7000")
	t.Setenv("SEARCH_DEBOUNCE", "1s")
	t.Setenv("CATALOG_URL", "")

	f := &flags{
		envFile:  filepath.Join(t.TempDir(), "none.env"),
		addr:     ":9000",
		debounce: 0,
	}
	cfg, err := f.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "1s", cfg.SearchDebounce.String())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("CATALOG_URL", "")
	f := &flags{envFile: filepath.Join(t.TempDir(), "none.env"), catalogURL: "not a url"}

	_, err := f.loadConfig()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
