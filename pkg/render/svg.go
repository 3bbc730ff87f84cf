package render

import (
	"bytes"
	"fmt"
	"html"
	"math"

	"github.com/matzehuels/forcegraph/pkg/scene"
)

const tooltipCSS = `
    .tooltip { pointer-events: none; opacity: 0; }
    .tooltip div { font: 12px sans-serif; background: #fff; border: 1px solid #aaa; border-radius: 4px; padding: 4px 6px; display: inline-block; }
    circle { cursor: pointer; }`

// The durations and target opacity mirror scene.FadeIn, scene.FadeOut and
// scene.TooltipOpacity.
const tooltipJS = `
    const tip = document.getElementById('tooltip');
    const body = tip.querySelector('div');
    let anim = null;
    function fade(to, ms) {
      const from = parseFloat(getComputedStyle(tip).opacity) || 0;
      if (anim) anim.cancel();
      anim = tip.animate([{opacity: from}, {opacity: to}], {duration: ms, easing: 'ease-in-out', fill: 'forwards'});
    }
    document.querySelectorAll('circle[data-tooltip]').forEach(el => {
      el.addEventListener('mouseover', ev => {
        const pt = el.ownerSVGElement.createSVGPoint();
        pt.x = ev.clientX; pt.y = ev.clientY;
        const p = pt.matrixTransform(el.ownerSVGElement.getScreenCTM().inverse());
        body.innerHTML = el.dataset.tooltip;
        tip.setAttribute('x', p.x.toFixed(1));
        tip.setAttribute('y', p.y.toFixed(1));
        fade(%g, %d);
      });
      el.addEventListener('mouseout', () => fade(0, %d));
    });`

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	tooltips bool
	fit      bool
	padding  float64
}

// WithoutTooltips omits the tooltip element and script.
func WithoutTooltips() SVGOption { return func(r *svgRenderer) { r.tooltips = false } }

// WithFit sets the viewBox to the drawn content plus padding instead of the
// canvas rectangle.
func WithFit(padding float64) SVGOption {
	return func(r *svgRenderer) {
		r.fit = true
		r.padding = padding
	}
}

// RenderSVG draws the scene's current group as a standalone SVG document.
func RenderSVG(s *scene.Scene, opts ...SVGOption) []byte {
	r := svgRenderer{tooltips: true}
	for _, opt := range opts {
		opt(&r)
	}

	c := s.Canvas()
	g := s.Root()
	vx, vy, vw, vh := 0.0, 0.0, float64(c.Width), float64(c.Height)
	if r.fit {
		if b, ok := contentBounds(g); ok {
			vx, vy = b.minX-r.padding, b.minY-r.padding
			vw, vh = b.maxX-b.minX+2*r.padding, b.maxY-b.minY+2*r.padding
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%d" height="%d"%s>`+"\n",
		num(vx), num(vy), num(vw), num(vh), c.Width, c.Height, backgroundStyle(c.Background))
	fmt.Fprintf(&buf, "  <g class=\"group\" data-generation=\"%d\">\n", g.Generation)

	buf.WriteString("    <g class=\"edges\">\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, `      <line data-key="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s"`,
			html.EscapeString(e.Key), num(e.X1), num(e.Y1), num(e.X2), num(e.Y2), num(e.StrokeWidth))
		if e.Stroke != "" {
			fmt.Fprintf(&buf, ` stroke="%s"`, html.EscapeString(e.Stroke))
		}
		buf.WriteString("/>\n")
	}
	buf.WriteString("    </g>\n")

	buf.WriteString("    <g class=\"nodes\">\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, `      <circle data-key="%s" cx="%s" cy="%s" r="%s" fill="%s"`,
			html.EscapeString(n.Key), num(n.CX), num(n.CY), num(n.R), html.EscapeString(n.Fill))
		if r.tooltips && n.Tooltip != "" {
			fmt.Fprintf(&buf, ` data-tooltip="%s"`, html.EscapeString(n.Tooltip))
		}
		buf.WriteString("/>\n")
	}
	buf.WriteString("    </g>\n")
	buf.WriteString("  </g>\n")

	if r.tooltips {
		renderTooltip(&buf)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderTooltip(buf *bytes.Buffer) {
	buf.WriteString(`  <foreignObject id="tooltip" class="tooltip" x="0" y="0" width="240" height="120">` +
		`<div xmlns="http://www.w3.org/1999/xhtml"></div></foreignObject>` + "\n")
	fmt.Fprintf(buf, "  <style>%s\n  </style>\n", tooltipCSS)
	js := fmt.Sprintf(tooltipJS, scene.TooltipOpacity, scene.FadeIn.Milliseconds(), scene.FadeOut.Milliseconds())
	fmt.Fprintf(buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
}

func backgroundStyle(ref string) string {
	style := "border:1px dotted"
	if ref != "" {
		style += fmt.Sprintf("; background-image: url('%s')", ref)
	}
	return fmt.Sprintf(` style="%s"`, html.EscapeString(style))
}

type bounds struct{ minX, minY, maxX, maxY float64 }

// contentBounds covers every circle including its radius, and every line.
func contentBounds(g *scene.Group) (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	add := func(x, y, pad float64) {
		b.minX = math.Min(b.minX, x-pad)
		b.minY = math.Min(b.minY, y-pad)
		b.maxX = math.Max(b.maxX, x+pad)
		b.maxY = math.Max(b.maxY, y+pad)
	}
	for _, n := range g.Nodes() {
		add(n.CX, n.CY, n.R)
	}
	for _, e := range g.Edges() {
		add(e.X1, e.Y1, e.StrokeWidth/2)
		add(e.X2, e.Y2, e.StrokeWidth/2)
	}
	return b, !g.Empty()
}

// num formats a coordinate compactly.
func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
