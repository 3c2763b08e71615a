// Package inventory reconciles the evidence streams of the discovery probes
// into one confidence-scored record per device.
//
// # Merge Semantics
//
// Each probe observes a different, incomplete facet of the same address, on
// its own timeline. Store.Apply folds every incoming result into the
// per-address record under a first-writer-wins rule per derived field, so
// the final record content does not depend on which probe happened to finish
// first. The one exception: a manufacturer or device type contributed only
// by the coarse vendor-passive hint yields to positive identification from
// an announcement or a matched fingerprint. Ports and services accumulate
// as set unions.
//
// Merging the same result twice appends to the evidence lists but never
// changes the derived fields.
//
// # Scoring
//
// Weights.Score adds a fixed contribution per corroborating signal and
// clamps at 1.0. The additive-with-cap design is intentional: several weak
// signals from unrelated methods should weigh like one strong one, not be
// discounted multiplicatively. Adding evidence never lowers a score.
//
// # Classification
//
// Classifier.Relevant is deliberately permissive (OR over its branches):
// false negatives are worse than false positives here, and consumers use
// the confidence score to triage further.
package inventory
