package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/comfyforge"
	"github.com/aretw0/comfyforge/internal/validator"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/registry"
	"github.com/aretw0/comfyforge/pkg/technique"
	"github.com/aretw0/comfyforge/pkg/wire"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := comfyforge.New()
	require.NoError(t, err)
	return NewServer(eng, nil)
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestListTechniques(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleList(context.Background(), call(nil))
	require.NoError(t, err)
	var defs []registry.Definition
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &defs))
	assert.Len(t, defs, len(technique.All()))
}

func TestBuildGraph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleBuild(ctx, call(map[string]any{
		"technique":  "flux-dev",
		"parameters": map[string]any{"prompt": "a cat", "seed": float64(9), "width": float64(768)},
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	g, err := domain.ParseGraph([]byte(text(t, res)))
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	canvas := g[g.NodesOf(domain.EmptyLatentImage)[0]]
	assert.Equal(t, float64(768), canvas.Inputs["width"].Literal())

	res, err = s.handleBuild(ctx, call(map[string]any{
		"technique":  "qwen-image",
		"parameters": map[string]any{"prompt": "a sign"},
		"envelope":   true,
		"client_id":  "agent-1",
	}))
	require.NoError(t, err)
	var env wire.Envelope
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &env))
	assert.Equal(t, "agent-1", env.ClientID)
}

func TestBuildGraph_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing technique", map[string]any{"parameters": map[string]any{"prompt": "a"}}, "technique"},
		{"parameters not an object", map[string]any{"technique": "flux-dev", "parameters": "a cat"}, "parameters must be an object"},
		{"unknown parameter", map[string]any{"technique": "flux-dev", "parameters": map[string]any{"prompt": "a", "colour": "red"}}, "colour"},
		{"missing reference", map[string]any{"technique": "flux-pulid", "parameters": map[string]any{"prompt": "a"}}, "reference_image"},
		{"unknown technique", map[string]any{"technique": "sd15", "parameters": map[string]any{"prompt": "a"}}, "sd15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleBuild(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestDetectTechnique(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	eng, err := comfyforge.New()
	require.NoError(t, err)
	g, err := eng.Build(ctx, technique.QwenImageEdit, domain.BuildParameters{Prompt: "make it blue", ReferenceImage: "in.png"})
	require.NoError(t, err)
	data, err := json.Marshal(g)
	require.NoError(t, err)

	for name, graphArg := range map[string]any{
		"string": string(data),
		"object": mustObject(t, data),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := s.handleDetect(ctx, call(map[string]any{"graph": graphArg}))
			require.NoError(t, err)
			var got domain.DetectedResult
			require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
			assert.Equal(t, technique.QwenImageEdit, got.Type)
			require.NotNil(t, got.Parameters.ReferenceImage)
			assert.Equal(t, "in.png", *got.Parameters.ReferenceImage)
		})
	}

	res, err := s.handleDetect(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestValidateGraph(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleValidate(ctx, call(map[string]any{
		"graph": `{"1":{"class_type":"EmptyLatentImage","inputs":{}},"2":{"class_type":"PreviewImage","inputs":{"images":["1",0]}},"3":{"class_type":"UNETLoader","inputs":{}}}`,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var report validator.Report
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &report))
	assert.Equal(t, []domain.NodeID{"2"}, report.Outputs)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, domain.NodeID("3"), report.Issues[0].Node)

	res, err = s.handleValidate(ctx, call(map[string]any{"graph": `{"1":{"class_type":"UNETLoader","inputs":{}}}`}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "no output node")

	res, err = s.handleValidate(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func mustObject(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestCompatibilityAndRecommend(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCompatibility(ctx, call(map[string]any{
		"technique":            "flux-dev-nunchaku",
		"available_node_types": []any{"MultiplySigmas"},
	}))
	require.NoError(t, err)
	var c registry.Compatibility
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &c))
	assert.False(t, c.Compatible)
	assert.Equal(t, []domain.ClassType{domain.NunchakuFluxDiTLoader}, c.Missing)

	res, err = s.handleCompatibility(ctx, call(map[string]any{"technique": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleRecommend(ctx, call(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"technique":"flux-dev"}`, text(t, res))

	res, err = s.handleRecommend(ctx, call(map[string]any{
		"available_node_types": []any{"NunchakuFluxDiTLoader", "MultiplySigmas"},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"technique":"flux-dev-nunchaku"}`, text(t, res))
}
