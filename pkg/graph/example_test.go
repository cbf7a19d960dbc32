package graph_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/nestlayout/pkg/graph"
)

func ExampleNew() {
	g, err := graph.New([]graph.NodeSpec{
		{ID: "app", Members: []graph.NodeSpec{{ID: "app.Main"}, {ID: "app.Config"}}},
		{ID: "lib", Members: []graph.NodeSpec{{ID: "lib.Client"}}},
	}, []graph.EdgeSpec{
		{ID: "e1", Source: "app.Main", Target: "app.Config", Type: graph.EdgeConstructs},
		{ID: "e2", Source: "app.Main", Target: "lib.Client", Type: graph.EdgeCalls},
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, e := range g.Edges() {
		fmt.Printf("%s: %s -> %s lifts to %s -> %s\n",
			e.ID, e.Source, e.Target, e.LiftedSource.ID, e.LiftedTarget.ID)
	}
	// Output:
	// e1: app.Main -> app.Config lifts to app.Main -> app.Config
	// e2: app.Main -> lib.Client lifts to app -> lib
}

func ExampleReadGraph() {
	input := `{
		"nodes": [{"id": "a", "members": [{"id": "a.x"}, {"id": "a.y"}]}],
		"edges": [{"id": "e", "source": "a.x", "target": "a.y", "type": "holds"}]
	}`

	g, err := graph.ReadGraph(strings.NewReader(input))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	for _, n := range g.Flatten() {
		fmt.Printf("%s level=%d members=%d\n", n.ID, n.Level, len(n.Members))
	}
	// Output:
	// a level=0 members=2
	// a.x level=1 members=0
	// a.y level=1 members=0
}

func ExampleWriteGraph() {
	g, _ := graph.New([]graph.NodeSpec{{ID: "a"}, {ID: "b"}},
		[]graph.EdgeSpec{{ID: "e", Source: "a", Target: "b", Type: graph.EdgeCalls}})
	g.Node("a").Width, g.Node("a").Height = 50, 50

	if err := graph.WriteGraph(g, os.Stdout); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "a",
	//       "width": 50,
	//       "height": 50
	//     },
	//     {
	//       "id": "b"
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "id": "e",
	//       "source": "a",
	//       "target": "b",
	//       "type": "calls",
	//       "weight": 1
	//     }
	//   ]
	// }
}
