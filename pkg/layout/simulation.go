package layout

import (
	"math"

	"github.com/matzehuels/forcegraph/pkg/graph"
)

const (
	initialRadius = 10.0
	jiggleScale   = 1e-6
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// lcg is the linear congruential generator behind jiggle. Each simulation
// owns one, seeded with 1.
type lcg struct{ s uint32 }

func (g *lcg) next() float64 {
	g.s = 1664525*g.s + 1013904223
	return float64(g.s) / 4294967296
}

type body struct {
	node         *graph.Node
	x, y, vx, vy float64
}

type spring struct {
	source, target int
	strength, bias float64
}

// Simulation is a single force simulation over one snapshot. It keeps its
// own copy of positions and velocities; [Simulation.Apply] writes positions
// back to the snapshot's nodes.
type Simulation struct {
	params     Params
	iterations int
	bodies     []body
	springs    []spring
	alpha      float64
	ticks      int
	rng        lcg
}

// NewSimulation prepares a simulation over snap. Node positions are
// initialized but not yet written back.
func NewSimulation(snap *graph.Snapshot, p Params) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n, _ := Iterations(p.AlphaMin, p.AlphaDecay)

	s := &Simulation{
		params:     p,
		iterations: n,
		bodies:     make([]body, len(snap.Nodes)),
		alpha:      1,
		rng:        lcg{s: 1},
	}

	index := make(map[*graph.Node]int, len(snap.Nodes))
	for i, node := range snap.Nodes {
		index[node] = i
		b := body{node: node}
		if node.Positioned() {
			b.x, b.y = node.X, node.Y
		} else {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			b.x, b.y = r*math.Cos(a), r*math.Sin(a)
		}
		s.bodies[i] = b
	}

	count := make([]int, len(snap.Nodes))
	s.springs = make([]spring, len(snap.Edges))
	for i, e := range snap.Edges {
		src, dst := index[e.Source], index[e.Target]
		count[src]++
		count[dst]++
		s.springs[i] = spring{source: src, target: dst}
	}
	for i := range s.springs {
		sp := &s.springs[i]
		cs, ct := float64(count[sp.source]), float64(count[sp.target])
		sp.strength = 1 / math.Min(cs, ct)
		sp.bias = cs / (cs + ct)
	}
	return s, nil
}

// Iterations returns the number of ticks the cooling schedule runs.
func (s *Simulation) Iterations() int { return s.iterations }

// Alpha returns the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Ticks returns how many ticks have run.
func (s *Simulation) Ticks() int { return s.ticks }

// Done reports whether the full schedule has run.
func (s *Simulation) Done() bool { return s.ticks >= s.iterations }

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.ticks++
	s.alpha += (s.params.AlphaTarget - s.alpha) * s.params.AlphaDecay

	for range s.params.LinkIterations {
		s.applyLinks()
	}
	if s.params.Charge != nil {
		s.applyCharge(*s.params.Charge)
	}
	if s.params.Center != nil {
		s.applyCenter(*s.params.Center)
	}

	keep := 1 - s.params.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		b.vx *= keep
		b.vy *= keep
		b.x += b.vx
		b.y += b.vy
	}
}

// Nodes returns the current position of every node in snapshot order.
func (s *Simulation) Nodes() []graph.Position {
	out := make([]graph.Position, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = graph.Position{ID: b.node.ID, X: b.x, Y: b.y}
	}
	return out
}

// Apply writes the current positions onto the snapshot's nodes. It fails
// without writing anything if any coordinate is not finite.
func (s *Simulation) Apply() error {
	for _, b := range s.bodies {
		if !finite(b.x) || !finite(b.y) {
			return layoutFailed(b.node.ID, b.x, b.y)
		}
	}
	for _, b := range s.bodies {
		b.node.SetPosition(b.x, b.y)
	}
	return nil
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.next() - 0.5) * jiggleScale
}

func (s *Simulation) applyLinks() {
	for _, sp := range s.springs {
		src, dst := &s.bodies[sp.source], &s.bodies[sp.target]

		x := dst.x + dst.vx - src.x - src.vx
		if x == 0 {
			x = s.jiggle()
		}
		y := dst.y + dst.vy - src.y - src.vy
		if y == 0 {
			y = s.jiggle()
		}

		l := math.Sqrt(x*x + y*y)
		l = (l - s.params.LinkDistance) / l * s.alpha * sp.strength
		x *= l
		y *= l

		dst.vx -= x * sp.bias
		dst.vy -= y * sp.bias
		src.vx += x * (1 - sp.bias)
		src.vy += y * (1 - sp.bias)
	}
}

func (s *Simulation) applyCharge(c Charge) {
	dmin2 := c.DistanceMin * c.DistanceMin
	dmax2 := math.Inf(1)
	if c.DistanceMax > 0 {
		dmax2 = c.DistanceMax * c.DistanceMax
	}

	for i := range s.bodies {
		bi := &s.bodies[i]
		for j := range s.bodies {
			if i == j {
				continue
			}
			bj := &s.bodies[j]
			x, y := bj.x-bi.x, bj.y-bi.y
			l := x*x + y*y
			if l >= dmax2 {
				continue
			}
			if x == 0 {
				x = s.jiggle()
				l += x * x
			}
			if y == 0 {
				y = s.jiggle()
				l += y * y
			}
			if l < dmin2 {
				l = math.Sqrt(dmin2 * l)
			}
			w := c.Strength * s.alpha / l
			bi.vx += x * w
			bi.vy += y * w
		}
	}
}

func (s *Simulation) applyCenter(c Center) {
	if len(s.bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range s.bodies {
		sx += b.x
		sy += b.y
	}
	n := float64(len(s.bodies))
	sx = (sx/n - c.X) * c.Strength
	sy = (sy/n - c.Y) * c.Strength
	for i := range s.bodies {
		s.bodies[i].x -= sx
		s.bodies[i].y -= sy
	}
}
