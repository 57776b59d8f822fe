package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/comfyforge/pkg/domain"
	"github.com/aretw0/comfyforge/pkg/technique"
)

func TestDefault_ListsEveryTechniqueInOrder(t *testing.T) {
	r := Default()
	defs := r.List()

	var ids []domain.TechniqueID
	for _, d := range defs {
		ids = append(ids, d.ID)
		assert.NotEmpty(t, d.Template, d.ID)
		assert.NoError(t, d.Template.Validate(), d.ID)
	}
	assert.Equal(t, []domain.TechniqueID{
		technique.FluxDev,
		technique.FluxDevNunchaku,
		technique.FluxPulid,
		technique.SDXLInstantID,
		technique.QwenImage,
		technique.QwenImageEdit,
	}, ids)
	assert.Equal(t, ids, r.IDs())
}

func TestGet_UnknownID(t *testing.T) {
	_, err := Default().Get("does-not-exist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, domain.TechniqueID("does-not-exist"), nf.ID)
}

func TestBuild_NeverFallsBack(t *testing.T) {
	g, err := Default().Build("missing", domain.BuildParameters{Prompt: "a cat"})
	assert.Nil(t, g)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuild_Delegates(t *testing.T) {
	p := domain.BuildParameters{Prompt: "a cat", Width: 512, Height: 512}.WithSeed(42)
	got, err := Default().Build(technique.FluxDev, p)
	require.NoError(t, err)
	want, err := technique.BuildFluxDev(p)
	require.NoError(t, err)
	assert.True(t, domain.Diff(want, got).Empty())
}

func TestRequiredNodeTypes(t *testing.T) {
	r := Default()

	base, err := r.Get(technique.FluxDev)
	require.NoError(t, err)
	assert.Empty(t, base.RequiredNodeTypes)

	nunchaku, err := r.Get(technique.FluxDevNunchaku)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.ClassType{domain.MultiplySigmas, domain.NunchakuFluxDiTLoader}, nunchaku.RequiredNodeTypes)

	pulid, err := r.Get(technique.FluxPulid)
	require.NoError(t, err)
	assert.Contains(t, pulid.RequiredNodeTypes, domain.ApplyPulidFlux)
	assert.NotContains(t, pulid.RequiredNodeTypes, domain.FixPulidFluxPatch, "template uses the standard strategy")
}

func TestCheckCompatibility(t *testing.T) {
	r := Default()

	tests := []struct {
		name      string
		id        domain.TechniqueID
		available []domain.ClassType
		want      Compatibility
	}{
		{
			name: "baseline on empty executor",
			id:   technique.FluxDev,
			want: Compatibility{Compatible: true},
		},
		{
			name: "optimized without extensions",
			id:   technique.FluxDevNunchaku,
			want: Compatibility{
				Compatible: false,
				Missing:    []domain.ClassType{domain.MultiplySigmas, domain.NunchakuFluxDiTLoader},
			},
		},
		{
			name:      "optimized with one extension",
			id:        technique.FluxDevNunchaku,
			available: []domain.ClassType{domain.NunchakuFluxDiTLoader},
			want: Compatibility{
				Compatible: false,
				Missing:    []domain.ClassType{domain.MultiplySigmas},
			},
		},
		{
			name:      "optimized fully supported",
			id:        technique.FluxDevNunchaku,
			available: []domain.ClassType{domain.NunchakuFluxDiTLoader, domain.MultiplySigmas, "SomethingElse"},
			want:      Compatibility{Compatible: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CheckCompatibility(tt.id, tt.available)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.CheckCompatibility("nope", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecommend(t *testing.T) {
	r := Default()
	assert.Equal(t, technique.FluxDev, r.Recommend(nil))
	assert.Equal(t, technique.FluxDev, r.Recommend([]domain.ClassType{domain.NunchakuFluxDiTLoader}))
	assert.Equal(t, technique.FluxDevNunchaku,
		r.Recommend([]domain.ClassType{domain.NunchakuFluxDiTLoader, domain.MultiplySigmas}))
}

func TestRecommend_CustomCatalog(t *testing.T) {
	byID := map[domain.TechniqueID]technique.Technique{}
	for _, tech := range technique.All() {
		byID[tech.ID] = tech
	}

	r, err := New(byID[technique.FluxPulid], byID[technique.QwenImage])
	require.NoError(t, err)
	assert.Equal(t, technique.QwenImage, r.Recommend(nil), "first compatible entry")

	r, err = New(byID[technique.FluxPulid])
	require.NoError(t, err)
	assert.Equal(t, technique.FluxPulid, r.Recommend(nil), "first entry when nothing is compatible")

	r, err = New(byID[technique.FluxDevNunchaku])
	require.NoError(t, err)
	assert.Equal(t, technique.FluxDevNunchaku,
		r.Recommend([]domain.ClassType{domain.NunchakuFluxDiTLoader, domain.MultiplySigmas}))
}

func TestGet_ReturnsCopies(t *testing.T) {
	r := Default()
	d, err := r.Get(technique.FluxDevNunchaku)
	require.NoError(t, err)

	d.RequiredNodeTypes[0] = "Mutated"
	for id := range d.Template {
		delete(d.Template, id)
	}

	again, err := r.Get(technique.FluxDevNunchaku)
	require.NoError(t, err)
	assert.NotContains(t, again.RequiredNodeTypes, domain.ClassType("Mutated"))
	assert.NotEmpty(t, again.Template)
}

func TestNew_RejectsDuplicatesAndBrokenTemplates(t *testing.T) {
	all := technique.All()
	_, err := New(all[0], all[0])
	assert.Error(t, err)

	broken := technique.Technique{
		ID: "broken",
		Build: func(domain.BuildParameters) (domain.Graph, error) {
			return nil, errors.New("boom")
		},
	}
	_, err = New(broken)
	assert.ErrorContains(t, err, "boom")
}
