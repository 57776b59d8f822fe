package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/comfyforge"
	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/observability"
	"github.com/aretw0/comfyforge/pkg/registry"
	"github.com/aretw0/comfyforge/pkg/technique"
	"github.com/aretw0/comfyforge/pkg/wire"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	eng, err := comfyforge.New(comfyforge.WithMetrics(observability.NewMetrics(reg)))
	require.NoError(t, err)
	return NewHandler(eng, WithMetricsHandler("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestListAndGetTechniques(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/techniques", "")
	require.Equal(t, http.StatusOK, w.Code)
	defs := decode[[]registry.Definition](t, w)
	require.Len(t, defs, len(technique.All()))
	assert.Equal(t, technique.FluxDev, defs[0].ID)

	w = do(t, h, http.MethodGet, "/techniques/sdxl-instantid", "")
	require.Equal(t, http.StatusOK, w.Code)
	def := decode[registry.Definition](t, w)
	assert.True(t, def.NeedsReference)
	assert.Contains(t, def.RequiredNodeTypes, domain.ApplyInstantIDAdvanced)

	w = do(t, h, http.MethodGet, "/techniques/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.TechniqueID("nope"), decode[ErrorResponse](t, w).Technique)
}

func TestBuild(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   domain.ErrorCode
	}{
		{"ok", "/techniques/flux-dev/build", `{"prompt":"a cat","seed":42}`, http.StatusOK, ""},
		{"missing prompt", "/techniques/flux-dev/build", `{"width":512}`, http.StatusUnprocessableEntity, domain.CodeMissingPrompt},
		{"missing reference", "/techniques/flux-pulid/build", `{"prompt":"me"}`, http.StatusUnprocessableEntity, domain.CodeMissingReferenceImage},
		{"schema violation", "/techniques/flux-dev/build", `{"prompt":"a","steps":"many"}`, http.StatusUnprocessableEntity, domain.CodeInvalidValue},
		{"unknown technique", "/techniques/sd15/build", `{"prompt":"a"}`, http.StatusNotFound, ""},
		{"malformed json", "/techniques/flux-dev/build", `{"prompt":`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[ErrorResponse](t, w).Code)
			}
		})
	}

	w := do(t, h, http.MethodPost, "/techniques/flux-dev/build", `{"prompt":"a cat","seed":42}`)
	g, err := domain.ParseGraph(w.Body.Bytes())
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	assert.Equal(t, int64(42), int64(g[g.NodesOf(domain.KSampler)[0]].Inputs["seed"].Literal().(float64)))
}

func TestBuild_Envelope(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/techniques/qwen-image/build?envelope=true&client_id=abc", `{"prompt":"a sign"}`)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[wire.Envelope](t, w)
	assert.Equal(t, "abc", env.ClientID)
	assert.NotEmpty(t, env.Prompt.NodesOf(domain.ModelSamplingAuraFlow))

	w = do(t, h, http.MethodPost, "/techniques/qwen-image/build?envelope=1", `{"prompt":"a sign"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[wire.Envelope](t, w).ClientID)
}

func TestDetect(t *testing.T) {
	h := newTestHandler(t)

	built := do(t, h, http.MethodPost, "/techniques/flux-dev-nunchaku/build", `{"prompt":"a cat","seed":3}`)
	require.Equal(t, http.StatusOK, built.Code)

	w := do(t, h, http.MethodPost, "/detect", built.Body.String())
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[domain.DetectedResult](t, w)
	assert.Equal(t, technique.FluxDevNunchaku, res.Type)
	require.NotNil(t, res.Parameters.Seed)
	assert.Equal(t, int64(3), *res.Parameters.Seed)

	w = do(t, h, http.MethodPost, "/detect", `[1,2,3]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"type":"unknown","parameters":{}}`, strings.TrimSpace(w.Body.String()))

	w = do(t, h, http.MethodPost, "/detect", `nope`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompatibilityAndRecommend(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/techniques/flux-dev-nunchaku/compatibility", `{"available_node_types":["NunchakuFluxDiTLoader"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[registry.Compatibility](t, w)
	assert.False(t, c.Compatible)
	assert.Equal(t, []domain.ClassType{domain.MultiplySigmas}, c.Missing)

	w = do(t, h, http.MethodPost, "/techniques/flux-dev/compatibility", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[registry.Compatibility](t, w).Compatible)

	w = do(t, h, http.MethodPost, "/recommend", `{"available_node_types":["NunchakuFluxDiTLoader","MultiplySigmas"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, technique.FluxDevNunchaku, decode[RecommendResponse](t, w).Technique)

	w = do(t, h, http.MethodPost, "/recommend", `{"available_node_types":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodPost, "/validate", `{"1":{"class_type":"Custom","inputs":{}},"2":{"class_type":"VAEDecode","inputs":{"samples":["1",0]}},"3":{"class_type":"SaveImage","inputs":{"images":["2",0]}},"4":{"class_type":"LoraLoader","inputs":{}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ValidateResponse](t, w)
	assert.True(t, resp.Valid)
	assert.Equal(t, 4, resp.Nodes)
	assert.Equal(t, []domain.ClassType{"Custom"}, resp.Unknown)
	assert.Equal(t, []domain.NodeID{"3"}, resp.Outputs)
	assert.Equal(t, []string{"node 4: LoraLoader does not feed any output"}, resp.Warnings)

	w = do(t, h, http.MethodPost, "/validate", `{"1":{"class_type":"UNETLoader","inputs":{}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "no output node")

	w = do(t, h, http.MethodPost, "/validate", `{"2":{"class_type":"VAEDecode","inputs":{"samples":["1",0]}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodPost, "/validate", `{"1":{"inputs":{}}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decode[ErrorResponse](t, w).Violations)
}

func TestSchemasHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, http.MethodGet, "/schemas/graph.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(wire.GraphSchema()), w.Body.String())

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodGet, "/healthz", "").Code)

	do(t, h, http.MethodPost, "/techniques/flux-dev/build", `{"prompt":"a cat"}`)
	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `comfyforge_builds_total{outcome="ok",technique="flux-dev"} 1`)

	w = do(t, h, http.MethodOptions, "/detect", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
