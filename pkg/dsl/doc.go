/*
Package dsl provides a fluent builder for node graphs.

Node ids are handed out sequentially, so a fixed sequence of calls always yields the
same graph. Inputs are set with Set (literals) or Link (wires to another node's output).
Splice inserts a node between existing outputs and all of their consumers through one
patch table that is applied atomically.

Example usage:

	b := dsl.New()
	ckpt := b.Add(domain.CheckpointLoaderSimple).Set("ckpt_name", "sd_xl_base_1.0.safetensors")
	pos := b.Add(domain.CLIPTextEncode).Link("clip", ckpt.Out(1)).Set("text", "a cat")

	lora := b.Add(domain.LoraLoader).Link("clip", ckpt.Out(1)).Set("lora_name", "style.safetensors")
	// Every node that read the checkpoint's clip now reads the adapter's.
	if _, err := b.Splice(map[domain.OutputRef]domain.OutputRef{ckpt.Out(1): lora.Out(1)}, lora.ID()); err != nil {
		return err
	}

	graph, err := b.Build()
*/
package dsl
