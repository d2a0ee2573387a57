package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/scribe/internal/models"
	"github.com/desertthunder/scribe/internal/shared"
	"github.com/dustin/go-humanize"
)

var _ list.Item = transcriptItem{}

// transcriptItem wraps [models.TranscriptSummary] to implement [list.Item].
type transcriptItem struct {
	transcript models.TranscriptSummary
}

func (i transcriptItem) FilterValue() string { return i.transcript.Filename }
func (i transcriptItem) Title() string       { return i.transcript.Filename }
func (i transcriptItem) Description() string {
	var desc string
	if !i.transcript.CreatedAt.IsZero() {
		desc = humanize.Time(i.transcript.CreatedAt.Time)
	}
	if i.transcript.Preview != "" {
		desc = fmt.Sprintf("%s • %s", desc, shared.Truncate(i.transcript.Preview, 60))
	}
	return desc
}

func transcriptItems(ts []models.TranscriptSummary) []list.Item {
	items := make([]list.Item, len(ts))
	for i, t := range ts {
		items[i] = transcriptItem{transcript: t}
	}
	return items
}
