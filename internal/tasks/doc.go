// Package tasks orchestrates image resolution and playlist export with real-time progress reporting.
//
// # Core Operations
//
//  1. [ResolutionEngine.Process] : Image → songs
//     - Detects the text block of the image
//     - Normalizes it into titles ([tracklist.Normalizer])
//     - Resolves titles to videos ([Resolver])
//     - Records owner-scoped history when an owner is known
//
//  2. [PlaylistExporter.Export] : Videos → private playlist
//     - Validates the request before any remote call
//     - Appends items sequentially in input order, stopping at the first failure
//
//  3. [BatchResolve] : Several image files through a worker pool
//
// # Resolvers
//
// [MultiTitleResolver] fans out one search per title through an errgroup bounded by a
// concurrency limit and a shared rate limiter, then keeps processed videos from a single
// details lookup. [SingleQueryResolver] runs one search and offers runner-up hits as
// recommendations.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
