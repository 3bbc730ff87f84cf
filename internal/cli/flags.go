package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// sceneFlags are the canvas, layout and update flags shared by render,
// watch, step and layout. Only flags set on the command line override the
// config file.
type sceneFlags struct {
	width            int
	height           int
	background       string
	mode             string
	cancelSuperseded bool
	linkDistance     float64
	charge           bool
	chargeStrength   float64
	center           bool
}

func (f *sceneFlags) bind(fs *pflag.FlagSet) {
	fs.IntVar(&f.width, "width", pipeline.DefaultWidth, "canvas width")
	fs.IntVar(&f.height, "height", pipeline.DefaultHeight, "canvas height")
	fs.StringVar(&f.background, "background", "", "background image URL or path")
	fs.StringVar(&f.mode, "mode", "freeze", "update mode: freeze, refresh")
	fs.BoolVar(&f.cancelSuperseded, "cancel-superseded", false, "skip queued renders replaced by a newer snapshot")
	fs.Float64Var(&f.linkDistance, "link-distance", layout.DefaultLinkDistance, "edge rest length")
	fs.BoolVar(&f.charge, "charge", false, "enable many-body repulsion")
	fs.Float64Var(&f.chargeStrength, "charge-strength", layout.DefaultCharge().Strength, "many-body strength (negative repels)")
	fs.BoolVar(&f.center, "center", false, "pull nodes toward the canvas center")
}

func (f *sceneFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fs := cmd.Flags()
	if fs.Changed("width") {
		opts.Width = f.width
	}
	if fs.Changed("height") {
		opts.Height = f.height
	}
	if fs.Changed("background") {
		opts.Background = f.background
	}
	if fs.Changed("mode") {
		opts.Mode = f.mode
	}
	if fs.Changed("cancel-superseded") {
		opts.CancelSuperseded = f.cancelSuperseded
	}
	if fs.Changed("link-distance") {
		opts.Layout.LinkDistance = f.linkDistance
	}
	if f.charge || fs.Changed("charge-strength") {
		c := layout.DefaultCharge()
		if opts.Layout.Charge != nil {
			*c = *opts.Layout.Charge
		}
		if fs.Changed("charge-strength") {
			c.Strength = f.chargeStrength
		}
		opts.Layout.Charge = c
	}
	if f.center {
		opts.Layout.Center = layout.CenterAt(float64(opts.Width)/2, float64(opts.Height)/2)
	}
}

// exportFlags select output formats and export details.
type exportFlags struct {
	output     string
	formats    string
	fit        bool
	padding    float64
	scale      float64
	noTooltips bool
	labels     bool
}

func (f *exportFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "output file (single format) or base path")
	fs.StringVarP(&f.formats, "format", "f", "", "output formats: svg, png, pdf, json, dot, neato (comma-separated)")
	fs.BoolVar(&f.fit, "fit", false, "crop the view to the drawn content")
	fs.Float64Var(&f.padding, "padding", pipeline.DefaultPadding, "margin around content with --fit")
	fs.Float64Var(&f.scale, "scale", pipeline.DefaultScale, "PNG scale factor")
	fs.BoolVar(&f.noTooltips, "no-tooltips", false, "omit the tooltip overlay from SVG")
	fs.BoolVar(&f.labels, "labels", false, "label nodes in DOT output")
}

func (f *exportFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	fs := cmd.Flags()
	if fs.Changed("format") {
		formats, err := pipeline.ParseFormats(f.formats)
		if err != nil {
			return err
		}
		opts.Formats = formats
	}
	if fs.Changed("fit") {
		opts.Fit = f.fit
	}
	if fs.Changed("padding") {
		opts.Padding = f.padding
	}
	if fs.Changed("scale") {
		opts.Scale = f.scale
	}
	if fs.Changed("no-tooltips") {
		opts.NoTooltips = f.noTooltips
	}
	if fs.Changed("labels") {
		opts.DOTLabels = f.labels
	}
	return nil
}
