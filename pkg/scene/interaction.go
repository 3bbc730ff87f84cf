package scene

import (
	"time"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// Tooltip fade parameters.
const (
	TooltipOpacity = 0.9
	FadeIn         = 200 * time.Millisecond
	FadeOut        = 500 * time.Millisecond
)

// Transition animates tooltip opacity from From to To over Duration,
// starting at Start, with cubic in-out easing.
type Transition struct {
	Start    time.Time     `json:"start"`
	From     float64       `json:"from"`
	To       float64       `json:"to"`
	Duration time.Duration `json:"duration"`
}

// OpacityAt returns the opacity elapsed after the transition started.
func (t Transition) OpacityAt(elapsed time.Duration) float64 {
	if t.Duration <= 0 || elapsed >= t.Duration {
		return t.To
	}
	if elapsed <= 0 {
		return t.From
	}
	p := easeCubicInOut(float64(elapsed) / float64(t.Duration))
	return t.From + (t.To-t.From)*p
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Tooltip is the single floating label of a scene. Text and position belong
// to the node most recently entered; they are kept while fading out.
type Tooltip struct {
	Node       string     `json:"node,omitempty"`
	Text       string     `json:"text,omitempty"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Transition Transition `json:"transition"`
}

// OpacityAt returns the opacity elapsed after the last pointer event.
func (t Tooltip) OpacityAt(elapsed time.Duration) float64 {
	return t.Transition.OpacityAt(elapsed)
}

// Opacity returns the opacity at the given instant.
func (t Tooltip) Opacity(now time.Time) float64 {
	return t.Transition.OpacityAt(now.Sub(t.Transition.Start))
}

// Target is the opacity the tooltip is heading for.
func (t Tooltip) Target() float64 { return t.Transition.To }

// PointerEnter shows the tooltip of node key at page position (x, y),
// fading in to [TooltipOpacity] over [FadeIn].
func (s *Scene) PointerEnter(key string, x, y float64) error {
	n, ok := s.root.nodeByKey[key]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "no node visual %q", key)
	}
	now := s.now()
	s.tooltip = Tooltip{
		Node: key,
		Text: n.Tooltip,
		X:    x,
		Y:    y,
		Transition: Transition{
			Start:    now,
			From:     s.tooltip.Opacity(now),
			To:       TooltipOpacity,
			Duration: FadeIn,
		},
	}
	return nil
}

// PointerLeave fades the tooltip out over [FadeOut]. Any node key that is
// drawn is accepted; the tooltip is shared.
func (s *Scene) PointerLeave(key string) error {
	if _, ok := s.root.nodeByKey[key]; !ok {
		return errors.New(errors.ErrCodeNotFound, "no node visual %q", key)
	}
	now := s.now()
	s.tooltip.Transition = Transition{
		Start:    now,
		From:     s.tooltip.Opacity(now),
		To:       0,
		Duration: FadeOut,
	}
	return nil
}
