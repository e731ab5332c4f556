// Package pipeline defines the core types of the checkpointed synchronization
// pipeline: source records pulled from the remote commerce platform, resumable
// cursors and checkpoints, per-record batch outcomes, the error taxonomy shared
// by every stage, and the reconciliation strategy chain that resolves remote
// identifiers to target-store identifiers.
//
// The package is pure domain logic: it has no I/O and no knowledge of the
// remote API or the target database. Infrastructure packages implement the
// ports declared here.
package pipeline
