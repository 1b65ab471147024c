//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

type record struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsFavorite bool   `json:"is_favorite"`
}

type homeState struct {
	Today     *record  `json:"today"`
	Favorites []record `json:"favorites"`
	Err       string   `json:"error"`
}

type detailState struct {
	Phase    string  `json:"phase"`
	Cocktail *record `json:"cocktail"`
	Err      string  `json:"error"`
}

func TestSystem_E2E_FavoriteSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var home homeState
	doJSON(t, http.MethodPost, baseURL+"/home/intents", map[string]any{"type": "load_today"}, &home, 200)
	if home.Today == nil {
		t.Fatalf("no pick of the day: error=%q", home.Err)
	}
	id := home.Today.ID

	var again homeState
	doJSON(t, http.MethodPost, baseURL+"/home/intents", map[string]any{"type": "load_today"}, &again, 200)
	if again.Today == nil || again.Today.ID != id {
		t.Fatalf("pick of the day changed within one process: %v -> %v", id, again.Today)
	}

	var full map[string]any
	doJSON(t, http.MethodGet, baseURL+"/home", nil, &full, 200)
	doJSON(t, http.MethodPost, baseURL+"/home/intents", map[string]any{
		"type":     "select",
		"cocktail": full["today"],
	}, nil, 200)

	var before detailState
	doJSON(t, http.MethodGet, baseURL+"/cocktails/"+id, nil, &before, 200)
	if before.Phase != "loaded" || before.Cocktail == nil {
		t.Fatalf("detail not loaded: %+v", before)
	}

	var after detailState
	doJSON(t, http.MethodPost, baseURL+"/cocktails/"+id+"/toggle-favorite", nil, &after, 200)
	if after.Cocktail.IsFavorite == before.Cocktail.IsFavorite {
		t.Fatalf("favorite flag not toggled: %+v", after)
	}
	want := after.Cocktail.IsFavorite

	doJSON(t, http.MethodPost, baseURL+"/home/intents", map[string]any{"type": "load_favorites"}, nil, 200)
	waitFavorite(t, ctx, id, want)

	if os.Getenv("E2E_RESTART") == "1" {
		restartServiceContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")

		var reloaded detailState
		doJSON(t, http.MethodGet, baseURL+"/cocktails/"+id, nil, &reloaded, 200)
		if reloaded.Cocktail == nil || reloaded.Cocktail.IsFavorite != want {
			t.Fatalf("favorite flag lost across restart: %+v", reloaded)
		}
	}
}

func TestSystem_E2E_UnknownCocktail(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")
	doJSON(t, http.MethodGet, baseURL+"/cocktails/does-not-exist", nil, nil, 404)
}

func waitFavorite(t *testing.T, ctx context.Context, id string, want bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		var home homeState
		doJSON(t, http.MethodGet, baseURL+"/home", nil, &home, 200)

		found := false
		for _, f := range home.Favorites {
			if f.ID == id {
				found = true
			}
		}
		if found == want {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("favorites never reflected id=%s favorite=%v", id, want)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
