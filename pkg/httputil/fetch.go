package httputil

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/observability"
)

// MaxBodySize caps a fetched body.
const MaxBodySize = 16 << 20

// Resource is a fetched body with its content type.
type Resource struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Fetcher downloads canvas background images. Transient failures (network
// errors, 429, 5xx) are retried with exponential backoff; bodies are cached
// in Store when one is set.
type Fetcher struct {
	Client   *http.Client
	Store    *Store
	Attempts int
	Delay    time.Duration
	Logger   *log.Logger
}

// NewFetcher returns a fetcher with a 30s client timeout and 3 attempts.
func NewFetcher(store *Store, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Store:    store,
		Attempts: 3,
		Delay:    time.Second,
		Logger:   logger,
	}
}

// Fetch returns the resource at ref. Plain paths and file:// URLs are read
// from disk; http(s) URLs go through the cache and the network.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (Resource, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return Resource{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid background reference %q", ref)
	}
	switch u.Scheme {
	case "", "file":
		path := ref
		if u.Scheme == "file" {
			path = u.Path
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return Resource{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read background %s", path)
		}
		return Resource{ContentType: http.DetectContentType(body), Body: body}, nil
	case "http", "https":
	default:
		return Resource{}, errors.New(errors.ErrCodeUnsupported, "unsupported background scheme %q", u.Scheme)
	}

	ns := f.store()
	var res Resource
	if ok, err := ns.Get(ctx, ref, &res); err != nil {
		f.Logger.Warn("background cache read failed", "url", ref, "err", err)
	} else if ok {
		f.Logger.Debug("background cache hit", "url", ref)
		return res, nil
	}

	err = Retry(ctx, max(f.Attempts, 1), f.Delay, func() error {
		var ferr error
		res, ferr = f.get(ctx, u)
		return ferr
	})
	if err != nil {
		return Resource{}, err
	}

	if err := ns.Set(ctx, ref, res); err != nil {
		f.Logger.Warn("background cache write failed", "url", ref, "err", err)
	}
	return res, nil
}

// FetchImage fetches ref and decodes it as PNG, JPEG, GIF or WebP.
func (f *Fetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	res, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(res.Body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode background %s", ref)
	}
	f.Logger.Debug("background decoded", "url", ref, "format", format, "size", img.Bounds().Size())
	return img, nil
}

func (f *Fetcher) store() *Store {
	if f.Store == nil {
		return NewStore(nil, nil, 0).Namespace("background")
	}
	return f.Store.Namespace("background")
}

func (f *Fetcher) get(ctx context.Context, u *url.URL) (Resource, error) {
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, http.MethodGet, u.Host, u.Path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Resource{}, err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodGet, u.Host, u.Path, err)
		if ctx.Err() != nil {
			return Resource{}, ctx.Err()
		}
		return Resource{}, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", u)}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodGet, u.Host, u.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Resource{}, errors.New(errors.ErrCodeNotFound, "background %s not found", u)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Resource{}, &RetryableError{Err: errors.New(errors.ErrCodeNetwork, "fetch %s: %s", u, resp.Status)}
	case resp.StatusCode >= 400:
		return Resource{}, errors.New(errors.ErrCodeNetwork, "fetch %s: %s", u, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return Resource{}, &RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s", u)}
	}
	if len(body) > MaxBodySize {
		return Resource{}, errors.New(errors.ErrCodeInvalidInput, "background %s exceeds %d bytes", u, MaxBodySize)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	f.Logger.Debug("background fetched", "url", u.String(), "bytes", len(body), "type", ct)
	return Resource{ContentType: ct, Body: body}, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}
