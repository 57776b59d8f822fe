package comfyforge_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/comfyforge"
	"github.com/aretw0/comfyforge/pkg/domain"
)

// ExampleEngine_Build builds the baseline technique and inspects the result.
func ExampleEngine_Build() {
	engine, err := comfyforge.New()
	if err != nil {
		log.Fatal(err)
	}

	params := domain.BuildParameters{Prompt: "a cat", Width: 512, Height: 512}.WithSeed(42)
	graph, err := engine.Build(context.Background(), "flux-dev", params)
	if err != nil {
		log.Fatal(err)
	}

	sampler := graph[graph.NodesOf(domain.KSampler)[0]]
	fmt.Println("nodes:", len(graph))
	fmt.Println("seed:", sampler.Inputs["seed"].Literal())
	// Output:
	// nodes: 9
	// seed: 42
}

// ExampleEngine_Detect classifies a graph received over the wire.
func ExampleEngine_Detect() {
	engine, err := comfyforge.New()
	if err != nil {
		log.Fatal(err)
	}

	payload := []byte(`{
		"1": {"class_type": "UNETLoader", "inputs": {"unet_name": "qwen_image_fp8_e4m3fn.safetensors"}},
		"2": {"class_type": "KSampler", "inputs": {"model": ["1", 0], "steps": 20, "cfg": 2.5, "seed": 7}}
	}`)
	res := engine.DetectJSON(context.Background(), payload)
	fmt.Println(res.Type, *res.Parameters.Steps, *res.Parameters.Seed)
	// Output: qwen-image 20 7
}

// ExampleEngine_Recommend picks a technique for an executor without extensions.
func ExampleEngine_Recommend() {
	engine, err := comfyforge.New()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(engine.Recommend(nil))
	fmt.Println(engine.Recommend([]domain.ClassType{"NunchakuFluxDiTLoader", "MultiplySigmas"}))
	// Output:
	// flux-dev
	// flux-dev-nunchaku
}
