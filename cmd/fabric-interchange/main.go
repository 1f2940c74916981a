// =============================================================================
// fabric-interchange - Main Entry Point
// =============================================================================
//
// Turns the in-memory model of an FPGA fabric into a self-contained device
// document for place-and-route tools: every repeated structure stored once,
// every name a handle into one string table.
//
// THE PIPELINE:
//   1. The fabric model (JSON or YAML) is loaded and checked against the CUE
//      fabric contract
//   2. The builder runs its stages: tile types, canonical site types, the
//      flattened wire/node graph, tiles, cell-bel maps, packages, LUT tables
//   3. The document is checked against the CUE document contract and,
//      with --audit, the OPA integrity policy
//   4. The document is encoded and written atomically (gzip by default)
//
// WHEN A GENERATED DEVICE LOOKS WRONG:
//   Start at the model, not the document. A contract failure on the way in
//   means the producer changed; fix it there.
// =============================================================================

package main

func main() {
	Execute()
}
