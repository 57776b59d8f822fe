/*
Package domain contains the core models of comfyforge.

It defines the node graph sent to the execution engine (the ComfyUI "API format"),
the parameters used to build graphs, the result of classifying a graph, and the typed
errors shared by every other package. The package is pure: no I/O, no logging, no
third-party dependencies.

# Key Entities

  - Graph: a map of NodeID to Node. Inputs are either literals or OutputRefs.
  - Value: a tagged variant. A wired input (Ref) can never be confused with a literal,
    even when the literal is itself a two-element array.
  - ClassType: the opcode of a node. Every opcode this module emits has a constant;
    any other string is still a valid ClassType and is only ever read, never emitted.
  - BuildParameters / DetectedParameters: the input of a builder and the best-effort
    output of the detector.
*/
package domain
