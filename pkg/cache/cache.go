// Package cache stores computed layouts and rendered artifacts.
//
// Backends implement [Cache]: [NullCache] for disabled caching, [FileCache]
// for the CLI, [RedisCache] and [MongoCache] for shared deployments of the
// HTTP host. Keys come from a [Keyer] so every backend agrees on naming.
//
// Layout keys hash the snapshot content together with every layout
// parameter, so a cached layout is only reused for an identical simulation.
// Artifact keys hash the layout key together with the sink options.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte store with optional per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and true on a hit. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	HTTPKey(namespace, key string) string
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds everything besides the snapshot that changes a layout.
type LayoutKeyOpts struct {
	AlphaMin       float64     `json:"alpha_min"`
	AlphaDecay     float64     `json:"alpha_decay"`
	AlphaTarget    float64     `json:"alpha_target"`
	VelocityDecay  float64     `json:"velocity_decay"`
	LinkDistance   float64     `json:"link_distance"`
	LinkIterations int         `json:"link_iterations"`
	Charge         *[3]float64 `json:"charge,omitempty"`
	Center         *[3]float64 `json:"center,omitempty"`
}

// ArtifactKeyOpts holds the sink options of a rendered artifact.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Background string  `json:"background,omitempty"`
	Mode       string  `json:"mode,omitempty"`
	Fit        float64 `json:"fit,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey names a fetched HTTP body.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// LayoutKey names a computed layout.
func (DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}

// ArtifactKey names a rendered artifact.
func (DefaultKeyer) ArtifactKey(layoutKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutKey, opts)
}

// KeyType returns the type segment of a key ("layout", "artifact",
// "http"), skipping any scope prefix. It labels cache metrics.
func KeyType(key string) string {
	best, typ := -1, "other"
	for _, t := range []string{"layout:", "artifact:", "http:"} {
		if i := strings.Index(key, t); i >= 0 && (best < 0 || i < best) {
			best, typ = i, t[:len(t)-1]
		}
	}
	return typ
}
