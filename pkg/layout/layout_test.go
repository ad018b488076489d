package layout

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"
)

func keys(ks ...string) []Node {
	nodes := make([]Node, len(ks))
	for i, k := range ks {
		nodes[i] = Node{Key: k, Output: k == "output"}
	}
	return nodes
}

func TestAssignScenarios(t *testing.T) {
	tests := []struct {
		name   string
		nodes  []Node
		edges  []Edge
		want   [][]string
		cyclic bool
	}{
		{
			name:  "chain into output",
			nodes: keys("a", "b", "output"),
			edges: []Edge{{"a", "b"}, {"b", "output"}},
			want:  [][]string{{"a"}, {"b"}, {"output"}},
		},
		{
			name:  "fan in",
			nodes: keys("a", "b", "c", "output"),
			edges: []Edge{{"a", "c"}, {"b", "c"}, {"c", "output"}},
			want:  [][]string{{"a", "b"}, {"c"}, {"output"}},
		},
		{
			name:   "two node cycle",
			nodes:  keys("a", "b"),
			edges:  []Edge{{"a", "b"}, {"b", "a"}},
			want:   [][]string{{"a", "b"}},
			cyclic: true,
		},
		{
			name:  "dangling edge",
			nodes: keys("a", "output"),
			edges: []Edge{{"a", "ghost"}},
			want:  [][]string{{"a"}, {"output"}},
		},
		{
			// c has no incoming edge, so it starts alongside a.
			name:  "isolated node without output",
			nodes: keys("a", "b", "c"),
			edges: []Edge{{"a", "b"}},
			want:  [][]string{{"a", "c"}, {"b"}},
		},
		{
			name:  "unreachable cycle joins last level",
			nodes: keys("a", "b", "x", "y", "output"),
			edges: []Edge{{"a", "b"}, {"x", "y"}, {"y", "x"}, {"b", "output"}},
			want:  [][]string{{"a"}, {"b", "x", "y"}, {"output"}},
		},
		{
			name:  "output listed first",
			nodes: keys("output", "a", "b"),
			edges: []Edge{{"a", "b"}, {"b", "output"}},
			want:  [][]string{{"a"}, {"b"}, {"output"}},
		},
		{
			name:  "output not linked",
			nodes: keys("a", "output"),
			want:  [][]string{{"a"}, {"output"}},
		},
		{
			name:  "only output",
			nodes: keys("output"),
			want:  [][]string{{"output"}},
		},
		{
			name: "empty",
		},
		{
			name:  "edge out of output",
			nodes: keys("a", "output", "z"),
			edges: []Edge{{"a", "output"}, {"output", "z"}},
			want:  [][]string{{"a", "z"}, {"output"}},
		},
		{
			name:  "diamond",
			nodes: keys("a", "b", "c", "d"),
			edges: []Edge{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}},
			want:  [][]string{{"a"}, {"b", "c"}, {"d"}},
		},
		{
			name:  "duplicate keys collapse",
			nodes: keys("a", "a", "b"),
			edges: []Edge{{"a", "b"}},
			want:  [][]string{{"a"}, {"b"}},
		},
		{
			name:  "empty key is leveled",
			nodes: keys("a", ""),
			want:  [][]string{{"a", ""}},
		},
		{
			name:  "empty key with edges",
			nodes: keys("", "b", "output"),
			edges: []Edge{{"", "b"}, {"b", "output"}},
			want:  [][]string{{""}, {"b"}, {"output"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assign(tt.nodes, tt.edges)
			if !reflect.DeepEqual(got.Levels, tt.want) {
				t.Errorf("Assign() levels = %v, want %v", got.Levels, tt.want)
			}
			if got.Cyclic != tt.cyclic {
				t.Errorf("Assign() cyclic = %v, want %v", got.Cyclic, tt.cyclic)
			}
		})
	}
}

func TestAssignMultipleOutputs(t *testing.T) {
	nodes := []Node{{Key: "a"}, {Key: "out1", Output: true}, {Key: "out2", Output: true}}
	edges := []Edge{{"a", "out1"}, {"a", "out2"}}

	lv := Assign(nodes, edges)
	if lv.Output != "out1" {
		t.Errorf("Output = %q, want %q", lv.Output, "out1")
	}
	want := [][]string{{"a"}, {"out2"}, {"out1"}}
	if !reflect.DeepEqual(lv.Levels, want) {
		t.Errorf("Levels = %v, want %v", lv.Levels, want)
	}
}

func TestComputeLayoutScenarioPositions(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		pos := ComputeLayout(keys("a", "b", "output"), []Edge{{"a", "b"}, {"b", "output"}}, 1280)
		if !(pos["a"].Y < pos["b"].Y && pos["b"].Y < pos["output"].Y) {
			t.Errorf("expected a.y < b.y < output.y, got %v", pos)
		}
	})

	t.Run("fan in", func(t *testing.T) {
		pos := ComputeLayout(keys("a", "b", "c", "output"), []Edge{{"a", "c"}, {"b", "c"}, {"c", "output"}}, 1000)
		want := map[string]Position{
			"a":      {X: 287.5, Y: 150},
			"b":      {X: 637.5, Y: 150},
			"c":      {X: 325, Y: 450},
			"output": {X: 412.5, Y: 750},
		}
		if !reflect.DeepEqual(pos, want) {
			t.Errorf("ComputeLayout() = %v, want %v", pos, want)
		}
	})

	t.Run("empty key", func(t *testing.T) {
		pos := ComputeLayout([]Node{{Key: "a"}, {Key: ""}}, nil, 1280)
		if len(pos) != 2 {
			t.Fatalf("ComputeLayout() = %v, want a position for every key", pos)
		}
		if _, ok := pos[""]; !ok {
			t.Errorf("ComputeLayout() = %v, missing key %q", pos, "")
		}
	})
}

func TestPlaceNonPositiveWidth(t *testing.T) {
	lv := Levels{Levels: [][]string{{"a", "b"}, {"c"}}}
	for _, w := range []float64{0, -500} {
		pos := Place(lv, w, DefaultOptions())
		if got := pos["a"].X; got != 200+87.5 {
			t.Errorf("Place(w=%v) a.X = %v, want %v", w, got, 287.5)
		}
		if got := pos["c"].X; got != 200 {
			t.Errorf("Place(w=%v) c.X = %v, want %v", w, got, 200.0)
		}
	}
}

func TestPlaceCustomOptions(t *testing.T) {
	lv := Levels{Levels: [][]string{{"a"}, {"b"}}}
	pos := Place(lv, 0, Options{SpacingX: 100, SpacingY: 50, StartY: 10, MinSideMargin: 20})
	if pos["a"] != (Position{X: 45, Y: 10}) {
		t.Errorf("a = %v, want {45 10}", pos["a"])
	}
	if pos["b"] != (Position{X: 20, Y: 60}) {
		t.Errorf("b = %v, want {20 60}", pos["b"])
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	got := Options{StartY: -1}.WithDefaults()
	if got != DefaultOptions() {
		t.Errorf("WithDefaults() = %+v, want %+v", got, DefaultOptions())
	}
	custom := Options{SpacingX: 10, SpacingY: 20, StartY: 0, MinSideMargin: 0}
	if got := custom.WithDefaults(); got != custom {
		t.Errorf("WithDefaults() = %+v, want %+v", got, custom)
	}
}

// randomGraph builds a reproducible graph that may contain cycles, dangling
// edges and an output node.
func randomGraph(r *rand.Rand) ([]Node, []Edge) {
	n := r.Intn(12)
	var nodes []Node
	for i := range n {
		nodes = append(nodes, Node{Key: fmt.Sprintf("n%d", i)})
	}
	if r.Intn(2) == 0 {
		nodes = append(nodes, Node{Key: "output", Output: true})
		r.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	}
	var edges []Edge
	for range r.Intn(20) {
		from := fmt.Sprintf("n%d", r.Intn(n+2))
		to := fmt.Sprintf("n%d", r.Intn(n+2))
		if r.Intn(5) == 0 {
			to = "output"
		}
		edges = append(edges, Edge{From: from, To: to})
	}
	return nodes, edges
}

func TestAssignProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := range 500 {
		nodes, edges := randomGraph(r)
		lv := Assign(nodes, edges)

		seen := map[string]int{}
		for li, level := range lv.Levels {
			for _, k := range level {
				if _, dup := seen[k]; dup {
					t.Fatalf("case %d: key %q assigned twice: %v", i, k, lv.Levels)
				}
				seen[k] = li
			}
		}
		if len(seen) != len(nodes) {
			t.Fatalf("case %d: assigned %d keys, want %d", i, len(seen), len(nodes))
		}

		if lv.Output != "" {
			last := lv.Levels[len(lv.Levels)-1]
			if len(last) != 1 || last[0] != lv.Output {
				t.Fatalf("case %d: last level = %v, want [%s]", i, last, lv.Output)
			}
		}

		pos := ComputeLayout(nodes, edges, 1280)
		if len(pos) != len(nodes) {
			t.Fatalf("case %d: %d positions, want %d", i, len(pos), len(nodes))
		}
		if again := ComputeLayout(nodes, edges, 1280); !reflect.DeepEqual(pos, again) {
			t.Fatalf("case %d: layout is not deterministic", i)
		}
	}
}

func TestAssignDanglingEdgesIgnored(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := range 200 {
		nodes, edges := randomGraph(r)
		want := Assign(nodes, edges)

		noisy := append([]Edge{{From: "ghost", To: "n0"}}, edges...)
		noisy = append(noisy, Edge{From: "n0", To: "ghost"}, Edge{From: "ghost", To: "phantom"})
		if got := Assign(nodes, noisy); !reflect.DeepEqual(got, want) {
			t.Fatalf("case %d: dangling edges changed levels: got %v, want %v", i, got.Levels, want.Levels)
		}
	}
}

func TestAssignEdgesDescend(t *testing.T) {
	// Acyclic graphs built forward from a topological order.
	r := rand.New(rand.NewSource(3))
	for i := range 200 {
		n := 1 + r.Intn(10)
		var nodes []Node
		for j := range n {
			nodes = append(nodes, Node{Key: fmt.Sprintf("n%d", j)})
		}
		nodes = append(nodes, Node{Key: "output", Output: true})
		var edges []Edge
		for range r.Intn(15) {
			a, b := r.Intn(n), r.Intn(n)
			if a == b {
				continue
			}
			if a > b {
				a, b = b, a
			}
			edges = append(edges, Edge{From: fmt.Sprintf("n%d", a), To: fmt.Sprintf("n%d", b)})
		}

		lv := Assign(nodes, edges)
		if lv.Cyclic {
			t.Fatalf("case %d: acyclic graph reported cyclic", i)
		}
		for _, e := range edges {
			from, to := lv.LevelOf(e.From), lv.LevelOf(e.To)
			// Breadth-first leveling keeps a shortcut edge on the same level
			// when its target was reached first through a shorter path.
			if to == 0 || to > from+1 {
				t.Fatalf("case %d: edge %v spans levels %d -> %d: %v", i, e, from, to, lv.Levels)
			}
			if !hasParentAt(edges, lv, e.To, to-1) {
				t.Fatalf("case %d: %q has no parent on level %d: %v", i, e.To, to-1, lv.Levels)
			}
		}
	}
}

func TestAssignTreeStrictlyDescends(t *testing.T) {
	nodes := keys("root", "l", "r", "ll", "lr", "output")
	edges := []Edge{{"root", "l"}, {"root", "r"}, {"l", "ll"}, {"l", "lr"}, {"ll", "output"}, {"lr", "output"}, {"r", "output"}}
	lv := Assign(nodes, edges)
	for _, e := range edges {
		if lv.LevelOf(e.To) <= lv.LevelOf(e.From) {
			t.Errorf("edge %v: level %d <= %d", e, lv.LevelOf(e.To), lv.LevelOf(e.From))
		}
	}
}

// hasParentAt reports whether key has an incoming edge from a node on level.
func hasParentAt(edges []Edge, lv Levels, key string, level int) bool {
	for _, e := range edges {
		if e.To == key && lv.LevelOf(e.From) == level {
			return true
		}
	}
	return false
}

func TestLevelsHelpers(t *testing.T) {
	lv := Levels{Levels: [][]string{{"a", "b"}, {"c"}}}
	if lv.Len() != 3 {
		t.Errorf("Len() = %d, want 3", lv.Len())
	}
	if got := lv.LevelOf("c"); got != 1 {
		t.Errorf("LevelOf(c) = %d, want 1", got)
	}
	if got := lv.LevelOf("zzz"); got != -1 {
		t.Errorf("LevelOf(zzz) = %d, want -1", got)
	}
}
