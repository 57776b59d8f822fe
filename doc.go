/*
Package comfyforge compiles image-generation requests into node graphs for a
ComfyUI-style execution engine, and classifies graphs of unknown origin.

A technique is one supported pipeline (a model family plus optional identity or editing
adapters). Each technique has a pure builder that turns a small set of parameters into a
complete graph in the engine's API format. A static registry enumerates the techniques,
checks whether an executor supports the opcodes a technique needs, and recommends the best
technique an executor can run. A detector reads arbitrary graphs and reports which
technique they look like together with whatever parameters it can recover.

# Key Features

  - Deterministic builds: with an explicit seed the same parameters always give the same graph.
  - Atomic splices: optional adapters are inserted through one patch table, so no consumer
    is ever left reading a replaced output.
  - Tolerant detection: the detector never fails and never guesses missing values.
  - Observability: lifecycle hooks, structured logging and Prometheus metrics.

# Usage

	package main

	import (
		"context"
		"encoding/json"
		"log"
		"os"

		"github.com/aretw0/comfyforge"
		"github.com/aretw0/comfyforge/pkg/domain"
	)

	func main() {
		eng, err := comfyforge.New()
		if err != nil {
			log.Fatal(err)
		}

		params := domain.BuildParameters{Prompt: "a lighthouse in a storm"}.WithSeed(42)
		graph, err := eng.Build(context.Background(), "flux-dev", params)
		if err != nil {
			log.Fatal(err)
		}
		_ = json.NewEncoder(os.Stdout).Encode(graph)
	}

# Adapters

The same engine is exposed over HTTP (pkg/adapters/http), as MCP tools
(pkg/adapters/mcp) and through the comfyforge command line (cmd/comfyforge).
*/
package comfyforge
