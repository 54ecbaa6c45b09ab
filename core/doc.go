// Package core contains the business logic of the page intelligence
// pipeline. It is designed to be engine-agnostic: nothing in here knows
// about a rendering engine, a transport, or the CLI.
//
// The core package is organized into several sub-packages:
//
// - domain: Pure domain models (Block, SelectionRect, Citation, Site)
// - extract: Deterministic text-block extraction over an abstract tree
// - highlight: Citation highlighting with timed auto-restore
// - selection: The region-selection overlay state machine
// - capture: Cropping and preview generation for captured rasters
// - ingest: Readability preflight for low-quality pages
// - errors: Custom error types for better error handling
// - interfaces: Contracts for external dependencies (DOM, cache, HTTP, logger)
//
// # Design Principles
//
// The core package follows clean architecture principles:
// - No external framework dependencies in the algorithms
// - All external dependencies are injected via interfaces
// - Business logic is testable in isolation
// - Domain models are free from persistence concerns
package core
