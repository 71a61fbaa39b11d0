package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgHistoryFetched MsgKind = iota
	MsgRecordDeleted
	MsgProgressUpdate
	MsgExportComplete
)

type historyFetched struct {
	records []*models.HistoryRecord
	err     error
}

type recordDeleted struct {
	id  string
	err error
}

type exportComplete struct {
	result *tasks.ExportResult
	err    error
}

// historyFetchedMsg is the constructor for [MsgHistoryFetched]
func historyFetchedMsg(records []*models.HistoryRecord, err error) Msg {
	return Msg{kind: MsgHistoryFetched, data: historyFetched{records, err}}
}

// recordDeletedMsg is the constructor for [MsgRecordDeleted]
func recordDeletedMsg(id string, err error) Msg {
	return Msg{kind: MsgRecordDeleted, data: recordDeleted{id, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.ExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportComplete{result, err}}
}
