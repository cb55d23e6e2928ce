// Package memory provides the namespaced, in-process memory store the
// email assistant builds its three memory tiers on.
//
// Tiers (all records live in the same Store, partitioned by namespace):
//   - Semantic: durable facts (contact preferences, relationships),
//     written by the manage_memory tool under the facts namespace.
//   - Episodic: an append-only log of labeled triage examples retrieved
//     for few-shot prompting at decision time.
//   - Procedural: the agent's own prompt templates, rewritten by the
//     optimizer based on feedback.
//
// Architecture:
//   - Store: namespaced put/get/search (chromem-go backend for local
//     use; volatile by design, process lifetime only)
//   - Embedder: text-to-vector conversion (deterministic mock for
//     tests, ONNX all-MiniLM-L6-v2 behind the onnx build tag)
//
// Namespace isolation is the load-bearing invariant: no operation reads
// or searches across namespaces, so one user's prompts, examples, and
// facts never leak into another's retrievals.
package memory
