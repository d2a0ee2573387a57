// Package models defines the data transfer objects exchanged with the transcription backend.
//
// The package contains two categories of types:
//
// 1. Read models fetched from the backend
//   - [TranscriptSummary] : One entry of the transcript list
//   - [TranscriptDetail] : Utterances and the speaker mapping of one transcript
//   - [Utterance] : A single speaker turn with offsets in milliseconds
//   - [ChatMessage] : One message of a transcript's chat log
//   - [UserSettings] : Flat preference record, fetched and saved wholesale
//   - [User] : The authenticated account
//
// 2. Command results
//   - [TranscribeResult] : Identifiers of a newly created transcript
//   - [TokenPair] : Access and refresh tokens issued at login
//
// [ChatMessage.Pending] and [TranscriptSummary] local edits never leave the client.
package models
