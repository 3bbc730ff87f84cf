// Package httputil fetches canvas background images.
//
// # Overview
//
// A canvas may reference a background image by URL. The SVG sink only
// needs the reference, but the PNG sink has to rasterize the image, so
// hosts fetch it with a [Fetcher]:
//
//	f := httputil.NewFetcher(httputil.NewStore(backend, keyer, 24*time.Hour), logger)
//	img, err := f.FetchImage(ctx, "https://example.com/map.png")
//
// Local paths and file:// URLs are read from disk. PNG, JPEG, GIF and WebP
// are decoded.
//
// # Caching
//
// [Store] is a JSON view over any [cache.Cache] backend, keyed through a
// [cache.Keyer] under a namespace. Fetched bodies live under the
// "background" namespace.
//
// # Retry
//
// [Retry] re-runs an operation while it fails with a [RetryableError],
// doubling the delay each time. The fetcher wraps connection errors, 429
// and 5xx responses this way; 404 and other 4xx fail immediately.
//
// # Metrics
//
// Every request reports to the global [observability.HTTPHooks].
package httputil
