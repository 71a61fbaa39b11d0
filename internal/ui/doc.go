// Package ui implements an interactive history browser using bubbletea's Elm architecture.
//
// The TUI walks one owner's resolution history:
//  1. [HistoryListView] : Browse past resolutions, newest first
//  2. [RecordView] : Inspect the songs found for one resolution
//  3. [ConfirmDeleteView] : Confirm removal of a history entry
//  4. [ExportView] : Watch a playlist export append videos one at a time
//  5. [ResultView] : Show the created playlist or where the export stopped
//
// The [Model] implements the standard Init/Update/View pattern and receives its own events through the [Msg] union type.
// Export progress flows through a channel from the exporter, so the view keeps updating while videos are appended.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, d, x, y/n, q) with contextual help from charmbracelet/bubbles/help.
package ui
