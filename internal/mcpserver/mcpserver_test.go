package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/graph"
	"github.com/matzehuels/crewboard/pkg/pipeline"
	"github.com/matzehuels/crewboard/pkg/plan"
	"github.com/matzehuels/crewboard/pkg/store"
)

const crewJSON = `{
  "name": "research crew",
  "nodes": [
    {"key": "researcher", "role": "Researcher"},
    {"key": "writer", "role": "Writer"},
    {"key": "output", "role": "Output"}
  ],
  "links": [
    {"from": "researcher", "to": "writer", "description": "Collect notes"},
    {"from": "writer", "to": "output", "description": "Draft the report"}
  ]
}`

func newServer(t *testing.T) (*Server, *store.FileStore) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(st, pipeline.NewRunner(nil, nil, nil)), st
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	data, err := json.Marshal(res.Content[0])
	require.NoError(t, err)
	var c struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(data, &c))
	require.Equal(t, "text", c.Type)
	return c.Text
}

func TestLayoutDiagram(t *testing.T) {
	s, _ := newServer(t)
	res, err := s.handleLayout(context.Background(), call("layout_diagram", map[string]any{
		"diagram": crewJSON,
		"width":   1280.0,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	l, err := graph.UnmarshalLayout([]byte(resultText(t, res)))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"researcher"}, {"writer"}, {"output"}}, l.Levels)
	n, ok := l.Node("writer")
	require.True(t, ok)
	assert.InDelta(t, 465.0, n.X, 1e-9) // odd level, no stagger
	assert.InDelta(t, 450.0, n.Y, 1e-9)
}

func TestLayoutDiagramBadInput(t *testing.T) {
	s, _ := newServer(t)

	res, err := s.handleLayout(context.Background(), call("layout_diagram", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleLayout(context.Background(), call("layout_diagram", map[string]any{"diagram": "{"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid diagram")
}

func TestExecutionPlan(t *testing.T) {
	s, _ := newServer(t)
	res, err := s.handlePlan(context.Background(), call("execution_plan", map[string]any{"diagram": crewJSON}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var p plan.Plan
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &p))
	assert.Equal(t, []string{"researcher", "writer", "output"}, p.Order)
	assert.Equal(t, 1, p.Branches)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "Draft the report", p.Steps[1].Description)
}

func TestExecutionPlanCycle(t *testing.T) {
	s, _ := newServer(t)
	cyclic := `{"nodes":[{"key":"a"},{"key":"b"}],"links":[{"from":"a","to":"b"},{"from":"b","to":"a"}]}`
	res, err := s.handlePlan(context.Background(), call("execution_plan", map[string]any{"diagram": cyclic}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "cannot plan diagram")
}

func TestLibraryTools(t *testing.T) {
	s, st := newServer(t)
	ctx := context.Background()

	d, err := diagram.Unmarshal([]byte(crewJSON))
	require.NoError(t, err)
	_, err = st.Save(ctx, "research crew", d)
	require.NoError(t, err)

	t.Run("List", func(t *testing.T) {
		res, err := s.handleList(ctx, call("list_diagrams", nil))
		require.NoError(t, err)
		require.False(t, res.IsError)

		var entries []store.Entry
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "research_crew.json", entries[0].Filename)
		assert.Equal(t, 3, entries[0].Nodes)
	})

	t.Run("Get", func(t *testing.T) {
		res, err := s.handleGet(ctx, call("get_diagram", map[string]any{"filename": "research_crew"}))
		require.NoError(t, err)
		require.False(t, res.IsError, resultText(t, res))

		got, err := diagram.Unmarshal([]byte(resultText(t, res)))
		require.NoError(t, err)
		assert.Equal(t, "research crew", got.Name)
	})

	t.Run("Get Missing", func(t *testing.T) {
		res, err := s.handleGet(ctx, call("get_diagram", map[string]any{"filename": "nope.json"}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "not found")
	})

	t.Run("Get Without Filename", func(t *testing.T) {
		res, err := s.handleGet(ctx, call("get_diagram", nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestToolsAreListed(t *testing.T) {
	s, _ := newServer(t)
	ctx := context.Background()

	initMsg := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	s.MCPServer().HandleMessage(ctx, json.RawMessage(initMsg))

	resp := s.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"layout_diagram", "execution_plan", "list_diagrams", "get_diagram"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}
