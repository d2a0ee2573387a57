package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/scribe/internal/library"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/preferences"
	"github.com/desertthunder/scribe/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoggedIn MsgKind = iota
	MsgTranscriptsFetched
	MsgTranscriptOpened
	MsgTranscriptChanged
	MsgTranscriptDeleted
	MsgExported
	MsgProgressUpdate
	MsgUploadComplete
	MsgChatUpdated
	MsgSettingsLoaded
	MsgSettingsSaved
	MsgSchemeChanged
	MsgSessionEnded
)

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(err error) Msg {
	return Msg{kind: MsgLoggedIn, err: err}
}

// transcriptsFetchedMsg is the constructor for [MsgTranscriptsFetched]
func transcriptsFetchedMsg(items []models.TranscriptSummary, err error) Msg {
	return Msg{kind: MsgTranscriptsFetched, data: items, err: err}
}

// transcriptOpenedMsg is the constructor for [MsgTranscriptOpened]
func transcriptOpenedMsg(v *library.Viewer, err error) Msg {
	return Msg{kind: MsgTranscriptOpened, data: v, err: err}
}

// transcriptChangedMsg is the constructor for [MsgTranscriptChanged], sent after a rename or speaker relabel
// settled either way.
func transcriptChangedMsg(status string, err error) Msg {
	return Msg{kind: MsgTranscriptChanged, data: status, err: err}
}

// transcriptDeletedMsg is the constructor for [MsgTranscriptDeleted]
func transcriptDeletedMsg(databaseID int, err error) Msg {
	return Msg{kind: MsgTranscriptDeleted, data: databaseID, err: err}
}

// exportedMsg is the constructor for [MsgExported]
func exportedMsg(path string, err error) Msg {
	return Msg{kind: MsgExported, data: path, err: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// uploadCompleteMsg is the constructor for [MsgUploadComplete]
func uploadCompleteMsg(result *models.TranscribeResult, err error) Msg {
	return Msg{kind: MsgUploadComplete, data: result, err: err}
}

// chatUpdatedMsg is the constructor for [MsgChatUpdated]
func chatUpdatedMsg(err error) Msg {
	return Msg{kind: MsgChatUpdated, err: err}
}

// settingsLoadedMsg is the constructor for [MsgSettingsLoaded]
func settingsLoadedMsg(s models.UserSettings, err error) Msg {
	return Msg{kind: MsgSettingsLoaded, data: s, err: err}
}

// settingsSavedMsg is the constructor for [MsgSettingsSaved]
func settingsSavedMsg(s models.UserSettings, err error) Msg {
	return Msg{kind: MsgSettingsSaved, data: s, err: err}
}

// schemeChangedMsg is the constructor for [MsgSchemeChanged]
func schemeChangedMsg(s preferences.Scheme) Msg {
	return Msg{kind: MsgSchemeChanged, data: s}
}

// sessionEndedMsg is the constructor for [MsgSessionEnded]
func sessionEndedMsg(reason error) Msg {
	return Msg{kind: MsgSessionEnded, err: reason}
}
