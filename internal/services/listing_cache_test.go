package services

import (
	"fmt"
	"testing"

	"github.com/antonioabatte/spotizip/internal/models"
)

func TestListingCache(t *testing.T) {
	tracks := []models.Track{
		{ID: "1", Title: "One", Artist: "A"},
		{ID: "2", Title: "Two", Artist: "B"},
	}

	t.Run("Roundtrip", func(t *testing.T) {
		cache := newListingCache(4)
		cache.put("token-a", "pl1", tracks)

		got, ok := cache.get("token-a", "pl1")
		if !ok {
			t.Fatal("expected cached listing")
		}
		if len(got) != 2 || got[0].Title != "One" {
			t.Errorf("unexpected cached listing %+v", got)
		}
	})

	t.Run("Token Isolation", func(t *testing.T) {
		cache := newListingCache(4)
		cache.put("token-a", "pl1", tracks)

		if _, ok := cache.get("token-b", "pl1"); ok {
			t.Error("listing should not be visible to a different token")
		}
		if _, ok := cache.get("token-a", "pl2"); ok {
			t.Error("listing should not be visible for a different playlist")
		}
	})

	t.Run("Returns Copies", func(t *testing.T) {
		cache := newListingCache(4)
		cache.put("token-a", "pl1", tracks)

		first, _ := cache.get("token-a", "pl1")
		first[0].Title = "mutated"

		second, _ := cache.get("token-a", "pl1")
		if second[0].Title != "One" {
			t.Error("cached listing should be immutable to callers")
		}
	})

	t.Run("Evicts Beyond Capacity", func(t *testing.T) {
		cache := newListingCache(2)
		for i := 0; i < 3; i++ {
			cache.put("token-a", fmt.Sprintf("pl%d", i), tracks)
		}

		if _, ok := cache.get("token-a", "pl0"); ok {
			t.Error("oldest listing should have been evicted")
		}
		if _, ok := cache.get("token-a", "pl2"); !ok {
			t.Error("newest listing should be cached")
		}
	})
}
