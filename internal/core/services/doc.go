// Package services implements the driving port interfaces.
// Services contain the core translation and batching logic and
// orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO or external dependencies beyond
// the worker-pool primitives.
package services
