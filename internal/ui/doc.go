// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// [Route] picks the top-level view from the session: signed-in users land on the dashboard, guests on the guest
// dashboard and everyone else on the login view. From there:
//  1. [DashboardView] : Browse, rename and delete transcripts
//  2. [ViewerView] : Read a transcript, label speakers and export it
//  3. [ChatView] : Ask the AI about the open transcript
//  4. [UploadView] : Send a recording and follow its progress
//  5. [SettingsView] : Edit transcription, theme and prompt preferences
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Upload progress flows through a channel from the [tasks.Uploader]. Session end and color scheme changes arrive the
// same way, so an expired refresh token sends the user back to the login view from anywhere.
package ui
