package services

import (
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/antonioabatte/spotizip/internal/models"
)

// defaultListingCap bounds how many playlist listings stay memoized.
const defaultListingCap = 64

// listingKey identifies a memoized listing. Keying on a hash of the access
// token keeps listings from leaking between sessions; a token refresh simply
// rotates the key.
type listingKey struct {
	token    uint64
	playlist string
}

// listingCache memoizes complete playlist listings per token identity.
type listingCache struct {
	entries *lru.Cache[listingKey, []models.Track]
}

func newListingCache(capacity int) *listingCache {
	if capacity <= 0 {
		capacity = defaultListingCap
	}

	entries, _ := lru.New[listingKey, []models.Track](capacity)
	return &listingCache{entries: entries}
}

func listingKeyFor(token, playlistID string) listingKey {
	h := fnv.New64a()
	h.Write([]byte(token))
	return listingKey{token: h.Sum64(), playlist: playlistID}
}

// get returns a copy of the memoized listing, if present.
func (c *listingCache) get(token, playlistID string) ([]models.Track, bool) {
	tracks, ok := c.entries.Get(listingKeyFor(token, playlistID))
	if !ok {
		return nil, false
	}

	out := make([]models.Track, len(tracks))
	copy(out, tracks)
	return out, true
}

func (c *listingCache) put(token, playlistID string, tracks []models.Track) {
	stored := make([]models.Track, len(tracks))
	copy(stored, tracks)
	c.entries.Add(listingKeyFor(token, playlistID), stored)
}
