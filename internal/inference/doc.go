// Package inference provides the scorer implementations behind the
// analysis pipeline's inference capability.
//
// HTTPScorer delegates to a model service over JSON, the production
// path. Baseline is a deterministic heuristic over the habitat offset
// features, used when no service is configured and as the fallback model
// in tests; it carries no trained weights and makes no claim beyond
// "visibly outside the envelope means stressed".
package inference
