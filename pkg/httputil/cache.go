package httputil

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/forcegraph/pkg/cache"
)

// Store is a JSON view over a [cache.Cache] backend. Keys are built with
// the backend's Keyer under the store's namespace, so HTTP bodies never
// collide with layouts or artifacts sharing the same backend.
//
// Use [Store.Namespace] to carve out sub-spaces:
//
//	bg := store.Namespace("background")
//	bg.Set(ctx, url, body)  // key "http:background:<url>"
type Store struct {
	backend   cache.Cache
	keyer     cache.Keyer
	ttl       time.Duration
	namespace string
}

// NewStore wraps backend. A nil backend disables caching; a nil keyer uses
// [cache.DefaultKeyer]. A ttl of 0 never expires.
func NewStore(backend cache.Cache, keyer cache.Keyer, ttl time.Duration) *Store {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &Store{backend: backend, keyer: keyer, ttl: ttl}
}

// TTL returns the entry lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get unmarshals the entry for key into v. It reports false on a miss.
func (s *Store) Get(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := s.backend.Get(ctx, s.keyer.HTTPKey(s.namespace, key))
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// Set marshals v and stores it under key.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.keyer.HTTPKey(s.namespace, key), data, s.ttl)
}

// Namespace returns a view whose keys are scoped under name. Calls chain:
// Namespace("a").Namespace("b") scopes under "a/b".
func (s *Store) Namespace(name string) *Store {
	ns := name
	if s.namespace != "" {
		ns = s.namespace + "/" + name
	}
	return &Store{backend: s.backend, keyer: s.keyer, ttl: s.ttl, namespace: ns}
}
