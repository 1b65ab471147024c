package session

import (
	"sync"

	"Cocktails/internal/cocktail"
)

// Cache is a single-slot holder for the process-lifetime random pick.
// It has no expiry; last writer wins.
type Cache struct {
	mu  sync.RWMutex
	v   cocktail.Cocktail
	set bool
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get() (cocktail.Cocktail, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.set {
		return cocktail.Cocktail{}, false
	}
	return c.v.Clone(), true
}

func (c *Cache) Set(v cocktail.Cocktail) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.v = v.Clone()
	c.set = true
}
