// Package pipeline runs snapshots through a renderer and exports the scene.
//
// This is the offline path shared by the CLI commands and the HTTP host's
// export endpoints. The live path (a renderer fed over time) lives in
// pkg/server; both end in the same sinks.
//
// # Architecture
//
// A run has three stages:
//
//  1. Load: read snapshot files (JSON or YAML)
//  2. Render: feed every snapshot to a [renderer.Renderer] and drain its
//     executor, with optional resets between snapshots
//  3. Export: write the final scene in the requested formats
//
// Layout-only runs ([Runner.ComputeLayout]) skip the scene entirely and
// return node coordinates.
//
// # Caching
//
// The final scene is a pure function of the snapshot sequence, the reset
// points, the update mode and the layout parameters. [Runner.Execute] hashes
// those into a scene key and caches each exported artifact under it, so a
// repeated run with identical inputs skips layout entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, snapshots, pipeline.Options{
//	    Width:   960,
//	    Height:  600,
//	    Formats: []string{"svg", "png"},
//	})
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"image"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/forcegraph/pkg/cache"
	"github.com/matzehuels/forcegraph/pkg/errors"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/renderer"
	"github.com/matzehuels/forcegraph/pkg/scene"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 960

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 600

	// DefaultScale is the default PNG scale factor.
	DefaultScale = 1.0

	// DefaultPadding is the margin around content when fitting.
	DefaultPadding = 20.0
)

// TTLs for cached entries.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"

	// FormatNeato is the DOT export laid out and drawn by Graphviz.
	FormatNeato = "neato"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,

	FormatNeato: true,
}

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",

	FormatNeato: "image/svg+xml",
}

// Extension returns the file extension for format, without the dot. The
// scene JSON gets its own suffix so it never lands on a snapshot file.
func Extension(format string) string {
	switch format {
	case FormatNeato:
		return "neato.svg"
	case FormatJSON:
		return "scene.json"
	default:
		return format
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It serializes to JSON so the server
// can accept it in request bodies.
type Options struct {
	// Canvas
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Background string `json:"background,omitempty"`

	// Rendering
	Layout           layout.Params `json:"layout"`
	Mode             string        `json:"mode,omitempty"`
	CancelSuperseded bool          `json:"cancel_superseded,omitempty"`
	// ResetBefore lists snapshot indices before which the scene is reset.
	ResetBefore []int `json:"reset_before,omitempty"`
	// Sequential drains the executor after every snapshot instead of once
	// at the end, so resets land between completed renders.
	Sequential bool `json:"sequential,omitempty"`

	// Export
	Formats    []string `json:"formats,omitempty"`
	Fit        bool     `json:"fit,omitempty"`
	Padding    float64  `json:"padding,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	NoTooltips bool     `json:"no_tooltips,omitempty"`
	DOTLabels  bool     `json:"dot_labels,omitempty"`

	// BackgroundImage is an already decoded background for the PNG sink.
	// When nil, Export fetches the canvas background itself.
	BackgroundImage image.Image `json:"-"`

	// Refresh bypasses cache reads. Results are still written.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the final scene. It is nil when every artifact came from
	// the cache.
	Scene *scene.Scene

	// SceneKey identifies the inputs that produced Scene.
	SceneKey string

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	// Renderer holds the renderer's task counters.
	Renderer renderer.Stats

	// Failures lists render tasks that failed. The scene kept its previous
	// state for each of them.
	Failures []error

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline timing and size information.
type Stats struct {
	Snapshots  int
	NodeCount  int
	EdgeCount  int
	RenderTime time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, formatList())
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		if err := ValidateFormat(f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func formatList() string {
	return strings.Join([]string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT, FormatNeato}, ", ")
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()

	if err := errors.ValidateCanvasSize(float64(o.Width), float64(o.Height)); err != nil {
		return err
	}
	if err := errors.ValidateBackground(o.Background); err != nil {
		return err
	}
	if err := o.Layout.Validate(); err != nil {
		return err
	}
	if _, err := scene.ParseMode(o.Mode); err != nil {
		return err
	}
	for _, i := range o.ResetBefore {
		if i < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "reset index must be non-negative, got %d", i)
		}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %v", o.Scale)
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills in the canvas size and layout parameters.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Layout == (layout.Params{}) {
		o.Layout = layout.DefaultParams()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SetRenderDefaults fills in export defaults.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Fit && o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SceneMode returns the parsed update mode.
func (o *Options) SceneMode() scene.Mode {
	m, _ := scene.ParseMode(o.Mode)
	return m
}

// ResetsBefore reports whether the scene resets before snapshot i.
func (o *Options) ResetsBefore(i int) bool {
	return slices.Contains(o.ResetBefore, i)
}

// RendererOptions translates the options into renderer options.
func (o *Options) RendererOptions() []renderer.Option {
	opts := []renderer.Option{
		renderer.WithLayoutParams(o.Layout),
		renderer.WithMode(o.SceneMode()),
		renderer.WithLogger(o.Logger),
	}
	if o.Background != "" {
		opts = append(opts, renderer.WithBackground(o.Background))
	}
	if o.CancelSuperseded {
		opts = append(opts, renderer.WithCancelSuperseded())
	}
	return opts
}

// LayoutKeyOpts returns cache key options for the layout parameters.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	p := o.Layout
	k := cache.LayoutKeyOpts{
		AlphaMin:       p.AlphaMin,
		AlphaDecay:     p.AlphaDecay,
		AlphaTarget:    p.AlphaTarget,
		VelocityDecay:  p.VelocityDecay,
		LinkDistance:   p.LinkDistance,
		LinkIterations: p.LinkIterations,
	}
	if c := p.Charge; c != nil {
		k.Charge = &[3]float64{c.Strength, c.DistanceMin, c.DistanceMax}
	}
	if c := p.Center; c != nil {
		k.Center = &[3]float64{c.X, c.Y, c.Strength}
	}
	return k
}

// ArtifactKeyOpts returns cache key options for one exported format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Width:      o.Width,
		Height:     o.Height,
		Background: o.Background,
		Mode:       o.SceneMode().String(),
	}
	if o.Fit {
		k.Fit = o.Padding
	}
	switch format {
	case FormatPNG:
		k.Scale = o.Scale
	case FormatSVG:
		if o.NoTooltips {
			k.Format += "+notooltips"
		}
	case FormatDOT:
		if o.DOTLabels {
			k.Format += "+labels"
		}
	}
	return k
}

// String summarizes the options for log output.
func (o *Options) String() string {
	return fmt.Sprintf("%dx%d %s formats=%s", o.Width, o.Height, o.SceneMode(), strings.Join(o.Formats, ","))
}
