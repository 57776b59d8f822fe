package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/technique"
)

func parse(t *testing.T, doc string) domain.Graph {
	t.Helper()
	g, err := domain.ParseGraph([]byte(doc))
	require.NoError(t, err)
	return g
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		graph    string
		outputs  []domain.NodeID
		errors   int
		warnings []domain.NodeID
	}{
		{
			name:    "chain into save",
			graph:   `{"1":{"class_type":"UNETLoader","inputs":{}},"2":{"class_type":"VAEDecode","inputs":{"samples":["1",0]}},"3":{"class_type":"SaveImage","inputs":{"images":["2",0]}}}`,
			outputs: []domain.NodeID{"3"},
		},
		{
			name:     "orphan loader",
			graph:    `{"1":{"class_type":"UNETLoader","inputs":{}},"2":{"class_type":"LoraLoader","inputs":{}},"3":{"class_type":"PreviewImage","inputs":{"images":["1",0]}}}`,
			outputs:  []domain.NodeID{"3"},
			warnings: []domain.NodeID{"2"},
		},
		{
			name:   "no output",
			graph:  `{"1":{"class_type":"UNETLoader","inputs":{}}}`,
			errors: 1,
		},
		{
			name:    "dangling wire",
			graph:   `{"3":{"class_type":"SaveImage","inputs":{"images":["9",0]}}}`,
			outputs: []domain.NodeID{"3"},
			errors:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Check(parse(t, tt.graph))
			assert.Equal(t, tt.outputs, r.Outputs)
			assert.Len(t, r.Errors(), tt.errors)

			var warned []domain.NodeID
			for _, i := range r.Warnings() {
				warned = append(warned, i.Node)
			}
			assert.Equal(t, tt.warnings, warned)

			if tt.errors > 0 {
				assert.ErrorIs(t, r.Err(), domain.ErrBrokenGraph)
			} else {
				assert.NoError(t, r.Err())
			}
		})
	}
}

func TestCheck_BuiltTechniquesAreClean(t *testing.T) {
	for _, tech := range technique.All() {
		for _, sampler := range []domain.SamplerStrategy{domain.SamplerStandard, domain.SamplerCustomSchedule} {
			t.Run(string(tech.ID)+"/"+string(sampler), func(t *testing.T) {
				p := domain.BuildParameters{
					Prompt:          "a lighthouse at dusk",
					ReferenceImage:  "face.png",
					SamplerStrategy: sampler,
				}.WithSeed(7)
				g, err := tech.Build(p)
				require.NoError(t, err)

				r := Check(g)
				assert.Empty(t, r.Issues)
				assert.Len(t, r.Outputs, 1)
			})
		}
	}
}

func TestIsOutput(t *testing.T) {
	assert.True(t, IsOutput(domain.SaveImage))
	assert.True(t, IsOutput("PreviewImage"))
	assert.True(t, IsOutput("SaveAnimatedWEBP"))
	assert.False(t, IsOutput(domain.VAEDecode))
}
