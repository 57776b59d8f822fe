package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		wire  string
	}{
		{"ref", Ref("4", 1), `["4",1]`},
		{"string", Literal("euler"), `"euler"`},
		{"int", Literal(20), `20`},
		{"float", Literal(3.5), `3.5`},
		{"bool", Literal(true), `true`},
		{"nil", Value{}, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wire, string(data))
		})
	}
}

func TestValue_DecodeOnlyStringIntegerPairsAsRefs(t *testing.T) {
	tests := []struct {
		wire  string
		isRef bool
	}{
		{`["4", 1]`, true},
		{`["4", 0]`, true},
		{`["4", 1.5]`, false},
		{`["4", -1]`, false},
		{`[4, 1]`, false},
		{`["4", 1, 2]`, false},
		{`["4"]`, false},
		{`{"node": "4", "slot": 1}`, false},
		{`"4"`, false},
	}
	for _, tt := range tests {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(tt.wire), &v), tt.wire)
		assert.Equal(t, tt.isRef, v.IsRef(), tt.wire)
	}

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`["7", 2]`), &v))
	ref, ok := v.AsRef()
	require.True(t, ok)
	assert.Equal(t, OutputRef{Node: "7", Slot: 2}, ref)
	assert.Nil(t, v.Literal())
}

func TestValue_LiteralPairIsNotARefInMemory(t *testing.T) {
	v := Literal([]any{"1", 0})
	assert.False(t, v.IsRef())
	_, ok := v.AsRef()
	assert.False(t, ok)
}

func TestNode_JSONShape(t *testing.T) {
	n := Node{ClassType: KSampler, Inputs: map[string]Value{"model": Ref("1", 0), "steps": Literal(20)}, Title: "Sampler"}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"class_type":"KSampler","inputs":{"model":["1",0],"steps":20},"_meta":{"title":"Sampler"}}`, string(data))

	data, err = json.Marshal(Node{ClassType: VAEDecode})
	require.NoError(t, err)
	assert.JSONEq(t, `{"class_type":"VAEDecode","inputs":{}}`, string(data))
}

func TestParseGraph_Tolerant(t *testing.T) {
	g, err := ParseGraph([]byte(`{
		"1": {"class_type": "UNETLoader", "inputs": {"unet_name": "flux1-dev.safetensors"}, "_meta": {"title": "Model"}},
		"2": 17,
		"3": {"class_type": "KSampler", "inputs": "broken"},
		"4": {"inputs": {"model": ["1", 0]}}
	}`))
	require.NoError(t, err)
	assert.Len(t, g, 3)
	assert.Equal(t, "Model", g["1"].Title)
	assert.Empty(t, g["3"].Inputs)
	assert.Equal(t, ClassType(""), g["4"].ClassType)
	assert.NoError(t, g.Validate())

	for _, bad := range []string{`[]`, `"graph"`, `{`} {
		_, err := ParseGraph([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestGraph_ValidateAndDangling(t *testing.T) {
	g := Graph{
		"1": {ClassType: VAELoader, Inputs: map[string]Value{"vae_name": Literal("ae.safetensors")}},
		"2": {ClassType: VAEDecode, Inputs: map[string]Value{"vae": Ref("1", 0), "samples": Ref("9", 0)}},
	}
	dangling := g.Dangling()
	require.Len(t, dangling, 1)
	assert.Equal(t, Edge{Consumer: "2", Input: "samples", From: OutputRef{Node: "9", Slot: 0}}, dangling[0])

	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBrokenGraph))

	delete(g["2"].Inputs, "samples")
	assert.NoError(t, g.Validate())
	assert.Len(t, g.Consumers(OutputRef{Node: "1", Slot: 0}), 1)
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := Graph{"1": {ClassType: KSampler, Inputs: map[string]Value{"steps": Literal(20)}}}
	c := g.Clone()
	c["1"].Inputs["steps"] = Literal(4)
	c["2"] = Node{ClassType: SaveImage}

	assert.Equal(t, 20, g["1"].Inputs["steps"].Literal())
	assert.Len(t, g, 1)
	assert.Nil(t, Graph(nil).Clone())
}

func TestGraph_ClassTypesAndNodesOf(t *testing.T) {
	g := Graph{
		"10": {ClassType: CLIPTextEncode},
		"2":  {ClassType: CLIPTextEncode},
		"1":  {ClassType: KSampler},
	}
	assert.Equal(t, []ClassType{CLIPTextEncode, KSampler}, g.ClassTypes())
	assert.Equal(t, []NodeID{"2", "10"}, g.NodesOf(CLIPTextEncode))
	assert.Equal(t, []NodeID{"1", "2", "10"}, g.IDs())
}

func TestSortNodeIDs(t *testing.T) {
	ids := []NodeID{"b", "10", "a", "2", "1"}
	SortNodeIDs(ids)
	assert.Equal(t, []NodeID{"1", "2", "10", "a", "b"}, ids)
}

func TestClassType_Known(t *testing.T) {
	assert.True(t, KSampler.Known())
	assert.True(t, KSampler.Core())
	assert.True(t, ApplyPulidFlux.Known())
	assert.False(t, ApplyPulidFlux.Core())
	assert.False(t, ClassType("SomeCustomNode").Known())
}
