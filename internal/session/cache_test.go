package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Cocktails/internal/cocktail"
)

func TestCache_EmptyByDefault(t *testing.T) {
	c := NewCache()

	_, ok := c.Get()
	assert.False(t, ok)
}

func TestCache_SetThenGet(t *testing.T) {
	c := NewCache()
	c.Set(cocktail.Cocktail{ID: "1", Name: "Mojito", Tags: []string{"IBA"}})

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, "Mojito", got.Name)
}

func TestCache_LastWriterWins(t *testing.T) {
	c := NewCache()
	c.Set(cocktail.Cocktail{ID: "1"})
	c.Set(cocktail.Cocktail{ID: "2"})

	got, _ := c.Get()
	assert.Equal(t, "2", got.ID)
}

func TestCache_SlotCannotBeMutatedThroughValues(t *testing.T) {
	c := NewCache()
	in := cocktail.Cocktail{ID: "1", Tags: []string{"IBA"}}
	c.Set(in)
	in.Tags[0] = "changed"

	out, _ := c.Get()
	out.Tags[0] = "changed again"

	again, _ := c.Get()
	assert.Equal(t, []string{"IBA"}, again.Tags)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(cocktail.Cocktail{ID: "x"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Get()
			}
		}()
	}
	wg.Wait()

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, "x", got.ID)
}
