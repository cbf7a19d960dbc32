package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

// StraightTreeLayout draws the children as a planar straight-line tree: the
// smallest subtree of every node hangs below it and the other subtrees line
// up to its right.
//
// The input need not be a tree. A spanning tree is derived first: the node
// with the lowest incoming minus outgoing layout edge count becomes the root,
// a breadth-first walk follows lifted outgoing edges, and any node the walk
// cannot reach is attached below the most recently visited node. When
// UniformSize is set, every child first takes the largest width and height
// among them (at least the minimum node size).
func StraightTreeLayout(s TierSettings, children []*graph.Node, parent *graph.Node, _ *graph.Graph) error {
	if err := Check(children); err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	tree, err := discoverTree(children, s.EdgeTypes)
	if err != nil {
		return err
	}

	if s.Params.UniformSize {
		w, h := s.MinimumNodeSize, s.MinimumNodeSize
		for _, n := range children {
			w, h = math.Max(w, n.Width), math.Max(h, n.Height)
		}
		for _, n := range children {
			n.Width, n.Height = w, h
		}
	}

	for _, n := range children {
		n.X = n.Width/2 + s.NodeMargin
		n.Y = n.Height/2 + s.NodeMargin
	}
	tree.layout(tree.root, s.NodeMargin)

	if parent != nil {
		w, h := Centerize(children, nil, "")
		fitParent(parent, w, h, s.NodePadding)
	}
	return nil
}

// spanningTree is a tree over a slice of nodes, by index.
type spanningTree struct {
	nodes []*graph.Node
	root  int
	next  [][]int
	// visited lists node indices in discovery order.
	visited []int
}

// discoverTree derives a spanning tree over nodes. It fails with a
// [TreeError] if a node remains unreached, which the attachment step
// should make impossible.
func discoverTree(nodes []*graph.Node, types graph.EdgeTypeSet) (*spanningTree, error) {
	index := make(map[*graph.Node]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}

	t := &spanningTree{nodes: nodes, next: make([][]int, len(nodes))}
	reached := make([]bool, len(nodes))

	score := func(n *graph.Node) int {
		return len(graph.FilterEdges(n.IncomingLifted, types)) - len(graph.FilterEdges(n.OutgoingLifted, types))
	}
	pickRoot := func() int {
		best, bestScore := -1, 0
		for i, n := range nodes {
			if reached[i] {
				continue
			}
			if sc := score(n); best < 0 || sc < bestScore {
				best, bestScore = i, sc
			}
		}
		return best
	}
	visit := func(i int) {
		reached[i] = true
		t.visited = append(t.visited, i)
	}

	t.root = pickRoot()
	visit(t.root)
	for head := 0; len(t.visited) < len(nodes); {
		for ; head < len(t.visited); head++ {
			cur := t.visited[head]
			for _, e := range graph.FilterEdges(nodes[cur].OutgoingLifted, types) {
				j, ok := index[e.LiftedTarget]
				if !ok || reached[j] {
					continue
				}
				visit(j)
				t.next[cur] = append(t.next[cur], j)
			}
		}
		if len(t.visited) == len(nodes) {
			break
		}
		orphan := pickRoot()
		last := t.visited[len(t.visited)-1]
		t.next[last] = append(t.next[last], orphan)
		visit(orphan)
	}

	if len(t.visited) != len(nodes) {
		err := &TreeError{}
		for i, n := range nodes {
			if !reached[i] {
				err.Unreached = append(err.Unreached, n.ID)
			}
		}
		return nil, err
	}
	return t, nil
}

// subtree is the extent of a laid out subtree and the nodes in it.
type subtree struct {
	width, height float64
	members       []int
}

func (st subtree) area() float64 { return st.width * st.height }

// layout places the subtree at i relative to its root, which must already
// sit at the shared starting position, and returns its extent.
func (t *spanningTree) layout(i int, margin float64) subtree {
	n := t.nodes[i]
	if len(t.next[i]) == 0 {
		return subtree{width: n.Width, height: n.Height, members: []int{i}}
	}

	subs := make([]subtree, 0, len(t.next[i]))
	for _, c := range t.next[i] {
		subs = append(subs, t.layout(c, margin))
	}
	slices.SortStableFunc(subs, func(a, b subtree) int {
		switch {
		case a.area() < b.area():
			return -1
		case a.area() > b.area():
			return 1
		}
		return 0
	})

	var vertical subtree
	horizontal := slices.Clone(subs[1:])
	if len(horizontal) == 0 {
		horizontal = []subtree{subs[0]}
	} else {
		vertical = subs[0]
	}

	curH := n.Height + margin
	for _, m := range vertical.members {
		t.nodes[m].Y += curH
	}
	curH += vertical.height

	curW := math.Max(vertical.width, n.Width) + margin
	slices.Reverse(horizontal)
	for _, sub := range horizontal {
		for _, m := range sub.members {
			t.nodes[m].X += curW
		}
		curW += sub.width
	}

	out := subtree{width: curW, height: curH, members: []int{i}}
	for _, sub := range subs {
		out.height = math.Max(out.height, sub.height)
		out.members = append(out.members, sub.members...)
	}
	return out
}
