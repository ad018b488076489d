package dag_test

import (
	"fmt"

	"github.com/matzehuels/crewboard/pkg/dag"
)

func ExampleDAG_basic() {
	// A simple crew: researcher → writer → output
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "researcher"})
	_ = g.AddNode(dag.Node{ID: "writer"})
	_ = g.AddNode(dag.Node{ID: "output"})
	_ = g.AddEdge(dag.Edge{From: "researcher", To: "writer"})
	_ = g.AddEdge(dag.Edge{From: "writer", To: "output"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	// Output:
	// Nodes: 3
	// Edges: 2
}

func ExampleDAG_traversal() {
	// Fan-out: the lead hands work to two specialists
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "lead"})
	_ = g.AddNode(dag.Node{ID: "legal"})
	_ = g.AddNode(dag.Node{ID: "finance"})
	_ = g.AddEdge(dag.Edge{From: "lead", To: "legal"})
	_ = g.AddEdge(dag.Edge{From: "lead", To: "finance"})

	fmt.Println("Children of lead:", g.Children("lead"))
	fmt.Println("Parents of legal:", g.Parents("legal"))
	fmt.Println("Out-degree of lead:", g.OutDegree("lead"))
	// Output:
	// Children of lead: [legal finance]
	// Parents of legal: [lead]
	// Out-degree of lead: 2
}

func ExampleDAG_TopologicalSort() {
	g := dag.New(nil)
	for _, id := range []string{"editor", "writer", "researcher"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "researcher", To: "writer"})
	_ = g.AddEdge(dag.Edge{From: "writer", To: "editor"})

	order, err := g.TopologicalSort()
	fmt.Println(order, err)
	// Output: [researcher writer editor] <nil>
}

func ExampleDAG_BackEdges() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "draft"})
	_ = g.AddNode(dag.Node{ID: "review"})
	_ = g.AddEdge(dag.Edge{From: "draft", To: "review"})
	_ = g.AddEdge(dag.Edge{From: "review", To: "draft"})

	fmt.Println(g.BackEdges())
	fmt.Println(g.Validate())
	// Output:
	// [[review draft]]
	// graph contains a cycle
}

func ExampleDAG_metadata() {
	g := dag.New(dag.Metadata{"name": "weekly-digest"})
	_ = g.AddNode(dag.Node{
		ID: "scout",
		Meta: dag.Metadata{
			"role":  "Scout",
			"tools": []string{"search"},
		},
	})

	node, _ := g.Node("scout")
	fmt.Println("Agent:", node.ID)
	fmt.Println("Role:", node.Meta["role"])
	// Output:
	// Agent: scout
	// Role: Scout
}
