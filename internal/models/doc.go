// Package models defines the domain entities of the snaplist resolution pipeline.
//
// The package contains two categories of types:
//
// 1. Value types passed between pipeline stages:
//   - [ResolvedVideo] : A search hit that passed availability filtering
//   - [FoundSong] : The persisted projection of a resolved video
//
// 2. Persistent entities stored by the repositories package:
//   - [HistoryRecord] : Owner-scoped snapshot of one resolution request
//   - [ExportRecord] : Outcome of one playlist export, including partial failures
//
// Persistent entities implement [Model] and are immutable after creation.
// The [Repository] interface defines the append-only access shared by their stores.
package models
