package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/wizvis"
	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const switchYAML = `name: switch
data:
  - id: sw
    expr: '{"armed": false}'
states:
  - id: down
    transitions:
      - event: flip
        cond: sw.armed
        target: up
  - id: up
    transitions:
      - event: flip
        target: down
`

func newTestServer(t *testing.T) (*Server, *wizvis.Inspector, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "switch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(switchYAML), 0644))
	insp := wizvis.New()
	return NewServer(insp, slog.New(slog.NewTextHandler(io.Discard, nil))), insp, path
}

func TestServer_Tools(t *testing.T) {
	ctx := context.Background()
	s, insp, path := newTestServer(t)
	req := mcp.CallToolRequest{}

	_, err := s.handleActiveStates(ctx, req, struct{}{})
	assert.ErrorIs(t, err, domain.ErrNotLoaded)

	snap, err := s.handleOpen(ctx, req, OpenArgs{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "switch", snap.Name)

	_, err = s.handleFireEvent(ctx, req, FireArgs{Event: "flip"})
	var modelErr *domain.ModelError
	assert.ErrorAs(t, err, &modelErr)

	assigned, err := s.handleAssignData(ctx, req, AssignArgs{Path: "armed", Value: "TRUE"})
	require.NoError(t, err)
	assert.Equal(t, true, assigned.Value)

	eval, err := s.handleEvaluate(ctx, req, EvalArgs{Expr: "sw.armed"})
	require.NoError(t, err)
	assert.True(t, eval.Result)

	fired, err := s.handleFireEvent(ctx, req, FireArgs{Event: "flip"})
	require.NoError(t, err)
	assert.Equal(t, FireResult{Event: "flip", Active: []string{"up"}, Entered: []string{"up"}, Exited: []string{"down"}}, fired)
	assert.Equal(t, []string{"up"}, domain.IDs(insp.ActiveStates()))

	active, err := s.handleActiveStates(ctx, req, struct{}{})
	require.NoError(t, err)
	require.Len(t, active.Active, 1)
	assert.True(t, active.Active[0].Transitions[0].Enabled)

	_, err = s.handleFireEvent(ctx, req, FireArgs{})
	assert.Error(t, err)
}

func TestServer_Resources(t *testing.T) {
	ctx := context.Background()
	s, insp, path := newTestServer(t)

	_, err := s.readJSON(ctx, "wizvis://states", func(snap wizvis.Snapshot) any { return snap.States })
	assert.ErrorIs(t, err, domain.ErrNotLoaded)
	_, err = s.mermaid()
	assert.ErrorIs(t, err, domain.ErrNotLoaded)

	require.NoError(t, insp.Open(ctx, path))

	contents, err := s.readJSON(ctx, "wizvis://states", func(snap wizvis.Snapshot) any { return snap.States })
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.JSONEq(t, `["down","up"]`, text.Text)

	contents, err = s.readJSON(ctx, "wizvis://tree", func(snap wizvis.Snapshot) any { return snap.Tree })
	require.NoError(t, err)
	text = contents[0].(mcp.TextResourceContents)
	assert.JSONEq(t, `[{"id":"down","children":[]},{"id":"up","children":[]}]`, text.Text)

	diagram, err := s.mermaid()
	require.NoError(t, err)
	assert.Contains(t, diagram, "class down active")
}
