// package models defines the data model for the transcription client
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the author of a [ChatMessage].
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Quality is the transcoding quality preset requested for an upload.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality validates a quality name.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case QualityLow, QualityMedium, QualityHigh:
		return q, nil
	}
	return "", fmt.Errorf("unknown quality %q (expected low, medium or high)", s)
}

// Describe returns the bitrate hint shown next to a quality choice.
func (q Quality) Describe() string {
	switch q {
	case QualityLow:
		return "64k bitrate - Smaller file size"
	case QualityMedium:
		return "128k bitrate - Balanced"
	case QualityHigh:
		return "192k bitrate - Best accuracy"
	}
	return ""
}

// TokenPair is returned by the login endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// User is the authenticated account profile.
type User struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
}

// TranscriptSummary is one entry of the transcript list.
//
// DatabaseID addresses the transcript in every mutating endpoint; ID is the backend file stem used to download text and JSON artifacts.
type TranscriptSummary struct {
	DatabaseID int       `json:"id"`
	ID         string    `json:"transcript_id"`
	Filename   string    `json:"filename"`
	CreatedAt  Timestamp `json:"created_at"`
	WordCount  int       `json:"word_count,omitempty"`
	Preview    string    `json:"preview,omitempty"`
}

// Utterance is a single speaker turn. Offsets are milliseconds from the start of the audio.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int64   `json:"start"`
	End        int64   `json:"end,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SpeakerMapping maps the immutable engine label (e.g. "A") to a user chosen display name.
type SpeakerMapping map[string]string

// DisplayName returns the mapped name for label, or "Speaker <label>" when unmapped.
func (m SpeakerMapping) DisplayName(label string) string {
	if name, ok := m[label]; ok && name != "" {
		return name
	}
	return "Speaker " + label
}

// Clone returns a copy of the mapping.
func (m SpeakerMapping) Clone() SpeakerMapping {
	out := make(SpeakerMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// TranscriptDetail holds the utterances and speaker mapping of one transcript.
type TranscriptDetail struct {
	Utterances []Utterance     `json:"utterances"`
	Speakers   SpeakerMapping `json:"speakers"`
}

// Labels returns the distinct speaker labels in order of first appearance.
func (d *TranscriptDetail) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, u := range d.Utterances {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			labels = append(labels, u.Speaker)
		}
	}
	return labels
}

// ChatMessage is one entry of a transcript's chat log.
//
// Pending marks a user message inserted locally before the backend confirmed it.
type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
	Pending   bool      `json:"-"`
}

// UserSettings is the flat preference record stored by the backend.
type UserSettings struct {
	Quality              Quality  `json:"quality,omitempty"`
	Language             string   `json:"language,omitempty"`
	Model                string   `json:"model,omitempty"`
	Theme                string   `json:"theme,omitempty"`
	Temperature          *float64 `json:"temperature,omitempty"`
	SystemPromptTemplate *string  `json:"system_prompt_template"`
	DefaultUserPrompt    *string  `json:"default_user_prompt"`
}

// DefaultPrompt returns the configured default user prompt, or "" when unset.
func (s UserSettings) DefaultPrompt() string {
	if s.DefaultUserPrompt == nil {
		return ""
	}
	return strings.TrimSpace(*s.DefaultUserPrompt)
}

// TranscribeResult identifies a newly created transcript.
//
// Guest uploads are not persisted, so only Text and Utterances are set.
type TranscribeResult struct {
	ID         string      `json:"id"`
	DatabaseID int         `json:"database_id"`
	TextFile   string      `json:"text_file"`
	JSONFile   string      `json:"json_file"`
	Filename   string      `json:"filename,omitempty"`
	Text       string      `json:"text,omitempty"`
	Utterances []Utterance `json:"utterances,omitempty"`
}

// Summary converts a persisted result into a list entry for the local transcript list.
func (r *TranscribeResult) Summary(filename string, now time.Time) TranscriptSummary {
	return TranscriptSummary{
		DatabaseID: r.DatabaseID,
		ID:         r.ID,
		Filename:   filename,
		CreatedAt:  Timestamp{now},
		Preview:    r.Text,
	}
}

// ExportRecord is one transcript written to disk by a bulk export.
type ExportRecord struct {
	ID           string
	TranscriptID int
	Filename     string
	Format       string
	Path         string
	CreatedAt    time.Time
}
