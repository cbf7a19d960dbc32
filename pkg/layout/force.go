package layout

import (
	"hash/fnv"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/matzehuels/nestlayout/pkg/geom"
	"github.com/matzehuels/nestlayout/pkg/graph"
)

// Simulation constants. They follow the usual velocity-Verlet force
// simulation: alpha cools from 1 towards alphaMin over the fixed number of
// ticks and velocities are damped every tick.
const (
	alphaMin       = 0.001
	velocityDecay  = 0.4
	initialRadius  = 10.0
	gapUnit        = 10.0
	maxCollidePass = 1000
	jiggleScale    = 1e-6
)

// ForceBasedLayout runs a fixed-length physics simulation over the children
// and sizes the parent to the resulting bounding box plus padding.
//
// The simulation always runs [DefaultIterations] ticks. Forces are
// configured per tier through [TierParams]:
//
//   - many-body: Charge repels centres with an inverse-distance force;
//     Rectangular measures the gap between box boundaries and pushes along
//     the segment joining the nearest points, only while the gap lies in
//     [Min, Max]
//   - collide: after every tick, overlapping boxes are separated along the
//     axis of least overlap, half the overlap each
//   - center: pulls each child towards the local origin, weighted per axis
//   - link: pulls the ends of lifted layout edges towards a distance of
//     Distance plus half of each end's diagonal
//
// Randomness only breaks exact ties and is drawn from a PCG source seeded
// by the settings seed and the parent id, so equal input yields equal output.
func ForceBasedLayout(s TierSettings, children []*graph.Node, parent *graph.Node, _ *graph.Graph) error {
	if err := Check(children); err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	sim := newSimulation(s, children, parent)
	for range DefaultIterations {
		sim.tick()
	}
	if s.Params.Collide {
		sim.separate(true)
	}
	sim.commit()

	w, h := Centerize(children, nil, "")
	if parent != nil {
		fitParent(parent, w, h, s.NodePadding)
	} else {
		Translate(children, nil, "", w/2, h/2)
	}
	return nil
}

type body struct {
	node   *graph.Node
	x, y   float64
	vx, vy float64
}

func (b *body) box() r2.Box { return geom.BoxAt(b.x, b.y, b.node.Width, b.node.Height) }

type link struct {
	source, target int
	distance       float64
	bias           float64
}

type simulation struct {
	params     TierParams
	bodies     []*body
	links      []link
	alpha      float64
	alphaDecay float64
	rng        *rand.Rand
}

func newSimulation(s TierSettings, children []*graph.Node, parent *graph.Node) *simulation {
	h := fnv.New64a()
	h.Write([]byte(originOf(parent)))

	sim := &simulation{
		params:     s.Params,
		alpha:      1,
		alphaDecay: 1 - math.Pow(alphaMin, 1.0/DefaultIterations),
		rng:        rand.New(rand.NewPCG(s.Seed, h.Sum64())),
	}

	index := make(map[*graph.Node]int, len(children))
	goldenAngle := math.Pi * (3 - math.Sqrt(5))
	for i, n := range children {
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * goldenAngle
		sim.bodies = append(sim.bodies, &body{node: n, x: r * math.Cos(a), y: r * math.Sin(a)})
		index[n] = i
	}

	if s.Params.Link.Enabled {
		count := make([]int, len(children))
		for _, e := range graph.LiftedEdges(children, s.EdgeTypes) {
			si, ok1 := index[e.LiftedSource]
			ti, ok2 := index[e.LiftedTarget]
			if !ok1 || !ok2 {
				continue
			}
			src, dst := children[si], children[ti]
			sim.links = append(sim.links, link{
				source:   si,
				target:   ti,
				distance: s.Params.Link.Distance + 0.5*geom.Diagonal(src.Width, src.Height) + 0.5*geom.Diagonal(dst.Width, dst.Height),
			})
			count[si]++
			count[ti]++
		}
		for i := range sim.links {
			l := &sim.links[i]
			l.bias = float64(count[l.source]) / float64(count[l.source]+count[l.target])
		}
	}
	return sim
}

func (sim *simulation) jiggle() float64 {
	return (sim.rng.Float64() - 0.5) * jiggleScale
}

func (sim *simulation) tick() {
	sim.alpha += -sim.alpha * sim.alphaDecay

	if sim.params.Link.Enabled {
		sim.applyLinks()
	}
	switch sim.params.ManyBody.Kind {
	case ManyBodyCharge:
		sim.applyCharge()
	case ManyBodyRectangular:
		sim.applyRectangular()
	}
	if c := sim.params.Center; c.Enabled {
		for _, b := range sim.bodies {
			b.vx -= b.x * c.X * sim.alpha
			b.vy -= b.y * c.Y * sim.alpha
		}
	}

	for _, b := range sim.bodies {
		b.vx *= 1 - velocityDecay
		b.vy *= 1 - velocityDecay
		b.x += b.vx
		b.y += b.vy
	}

	if sim.params.Collide {
		sim.separate(false)
	}
}

func (sim *simulation) applyLinks() {
	strength := sim.params.Link.Strength
	for _, l := range sim.links {
		src, dst := sim.bodies[l.source], sim.bodies[l.target]
		x := dst.x + dst.vx - src.x - src.vx
		y := dst.y + dst.vy - src.y - src.vy
		if x == 0 {
			x = sim.jiggle()
		}
		if y == 0 {
			y = sim.jiggle()
		}
		d := math.Hypot(x, y)
		k := (d - l.distance) / d * sim.alpha * strength
		x, y = x*k, y*k
		dst.vx -= x * l.bias
		dst.vy -= y * l.bias
		src.vx += x * (1 - l.bias)
		src.vy += y * (1 - l.bias)
	}
}

// applyCharge is the exact pairwise inverse-distance repulsion. A body's
// charge grows with the square root of its area.
func (sim *simulation) applyCharge() {
	base := sim.params.ManyBody.Strength
	for i, a := range sim.bodies {
		for j, b := range sim.bodies {
			if i == j {
				continue
			}
			x, y := b.x-a.x, b.y-a.y
			if x == 0 {
				x = sim.jiggle()
			}
			if y == 0 {
				y = sim.jiggle()
			}
			l := x*x + y*y
			if l < 1 {
				l = math.Sqrt(l)
			}
			charge := -base * math.Sqrt(b.node.Width*b.node.Height)
			a.vx += x * charge * sim.alpha / l
			a.vy += y * charge * sim.alpha / l
		}
	}
}

// applyRectangular repels boxes by the gap between their boundaries. The
// impulse falls off with the gap beyond gapUnit and is split evenly between
// the two bodies, directed along the nearest-point segment.
func (sim *simulation) applyRectangular() {
	mb := sim.params.ManyBody
	for i := 0; i < len(sim.bodies); i++ {
		for j := i + 1; j < len(sim.bodies); j++ {
			a, b := sim.bodies[i], sim.bodies[j]
			gap, pa, pb := geom.Gap(a.box(), b.box())
			if gap < mb.Min || gap > mb.Max {
				continue
			}
			dir := r2.Sub(pb, pa)
			if gap == 0 {
				dir = r2.Vec{X: b.x - a.x, Y: b.y - a.y}
			}
			if dir.X == 0 && dir.Y == 0 {
				dir = r2.Vec{X: sim.jiggle(), Y: sim.jiggle()}
			}
			dir = r2.Unit(dir)
			impulse := 0.5 * mb.Strength * sim.alpha / math.Max(gap/gapUnit, 1)
			a.vx -= dir.X * impulse
			a.vy -= dir.Y * impulse
			b.vx += dir.X * impulse
			b.vy += dir.Y * impulse
		}
	}
}

// separate pushes overlapping boxes apart along the axis of least overlap.
// One pass runs per tick; the final call repeats until no overlap remains
// or maxCollidePass is reached.
func (sim *simulation) separate(untilStable bool) {
	for pass := 0; pass < maxCollidePass; pass++ {
		moved := false
		for i := 0; i < len(sim.bodies); i++ {
			for j := i + 1; j < len(sim.bodies); j++ {
				if sim.resolve(sim.bodies[i], sim.bodies[j]) {
					moved = true
				}
			}
		}
		if !untilStable || !moved {
			return
		}
	}
}

func (sim *simulation) resolve(a, b *body) bool {
	dx, dy := b.x-a.x, b.y-a.y
	ox := 0.5*(a.node.Width+b.node.Width) - math.Abs(dx)
	oy := 0.5*(a.node.Height+b.node.Height) - math.Abs(dy)
	if ox <= geom.Epsilon || oy <= geom.Epsilon {
		return false
	}
	if ox < oy {
		shift := 0.5 * ox * sign(dx)
		a.x -= shift
		b.x += shift
	} else {
		shift := 0.5 * oy * sign(dy)
		a.y -= shift
		b.y += shift
	}
	return true
}

func (sim *simulation) commit() {
	for _, b := range sim.bodies {
		b.node.X, b.node.Y = b.x, b.y
	}
}

// sign maps 0 to 1 so coincident bodies still separate.
func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
