package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/httputil"
	"github.com/matzehuels/forcegraph/pkg/observability"
	"github.com/matzehuels/forcegraph/pkg/render"
	"github.com/matzehuels/forcegraph/pkg/render/nodelink"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// Export writes the scene's current group in every requested format. A
// background image that cannot be fetched is logged and left out of the
// PNG; the SVG keeps the reference either way. When opts.BackgroundImage
// is set it is used as is and nothing is fetched.
func Export(ctx context.Context, sc *scene.Scene, opts Options, fetcher *httputil.Fetcher) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts := make(map[string][]byte, len(opts.Formats))
	var err error
	for _, format := range opts.Formats {
		var data []byte
		data, err = exportFormat(ctx, sc, format, opts, fetcher)
		if err != nil {
			err = fmt.Errorf("render %s: %w", format, err)
			break
		}
		artifacts[format] = data
	}

	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return artifacts, nil
}

func exportFormat(ctx context.Context, sc *scene.Scene, format string, opts Options, fetcher *httputil.Fetcher) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.RenderSVG(sc, svgOptions(opts)...), nil
	case FormatPNG:
		return render.RenderPNG(sc, pngOptions(ctx, sc, opts, fetcher)...)
	case FormatPDF:
		return render.RenderPDF(sc, svgOptions(opts)...)
	case FormatJSON:
		return render.RenderJSON(sc)
	case FormatDOT:
		return []byte(nodelink.ToDOT(sc, nodelink.Options{Labels: opts.DOTLabels})), nil
	case FormatNeato:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(sc, nodelink.Options{Labels: opts.DOTLabels}))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func svgOptions(opts Options) []render.SVGOption {
	var out []render.SVGOption
	if opts.NoTooltips {
		out = append(out, render.WithoutTooltips())
	}
	if opts.Fit {
		out = append(out, render.WithFit(opts.Padding))
	}
	return out
}

func pngOptions(ctx context.Context, sc *scene.Scene, opts Options, fetcher *httputil.Fetcher) []render.PNGOption {
	out := []render.PNGOption{render.WithScale(opts.Scale)}
	if opts.Fit {
		out = append(out, render.WithPNGFit(opts.Padding))
	}
	if img := background(ctx, sc, opts, fetcher); img != nil {
		out = append(out, render.WithBackgroundImage(img))
	} else {
		out = append(out, render.WithBackgroundColor("white"))
	}
	return out
}

func background(ctx context.Context, sc *scene.Scene, opts Options, fetcher *httputil.Fetcher) image.Image {
	if opts.BackgroundImage != nil {
		return opts.BackgroundImage
	}
	return FetchBackground(ctx, sc.Canvas().Background, opts.Logger, fetcher)
}

// FetchBackground fetches and decodes the background image ref. It returns
// nil when ref is empty, fetcher is nil or the fetch fails; failures are
// logged to logger. Hosts that serialize scene access call it before taking
// their lock and pass the result as Options.BackgroundImage, since a fetch
// may sleep through retries.
func FetchBackground(ctx context.Context, ref string, logger *log.Logger, fetcher *httputil.Fetcher) image.Image {
	if ref == "" || fetcher == nil {
		return nil
	}
	img, err := fetcher.FetchImage(ctx, ref)
	if err != nil {
		if logger != nil {
			logger.Warn("background unavailable, rendering PNG without it", "background", ref, "err", err)
		}
		return nil
	}
	return img
}
