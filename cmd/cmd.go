// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"}
}

func idArg() cli.Argument {
	return &cli.StringArg{Name: "id", UsageText: "transcript database id"}
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles account authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "email", Usage: "Optional email used for password resets"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Log in with username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Check backend health and the local session",
				Action: r.AuthStatus,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in account",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthWhoami,
			},
			{
				Name:      "forgot",
				Usage:     "Request a password reset email",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Action:    r.AuthForgot,
			},
			{
				Name:      "reset",
				Usage:     "Set a new password with a reset token",
				Arguments: []cli.Argument{&cli.StringArg{Name: "token"}},
				Action:    r.AuthReset,
			},
		},
	}
}

// uploadCommand transcribes a local recording
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Aliases:   []string{"transcribe"},
		Usage:     "Upload an audio file (.m4a, .mp3, .wav) and transcribe it",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "quality", Aliases: []string{"q"}, Usage: "Quality preset: low, medium or high"},
			&cli.BoolFlag{Name: "guest", Usage: "Upload without an account (5 MB limit, nothing is saved)"},
			jsonFlag(),
		},
		Action: r.Upload,
	}
}

// transcriptsCommand handles the transcript library
func transcriptsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "transcripts",
		Aliases: []string{"t"},
		Usage:   "Browse and manage transcripts",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List transcripts, newest first",
				Flags:   []cli.Flag{jsonFlag(), prettyFlag()},
				Action:  r.TranscriptsList,
			},
			{
				Name:      "show",
				Usage:     "Print a transcript with speaker names",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "copy", Usage: "Copy the transcript to the clipboard"},
					&cli.BoolFlag{Name: "raw", Usage: "Print the stored text without speaker turns"},
				},
				Action: r.TranscriptsShow,
			},
			{
				Name:      "rename",
				Usage:     "Rename a transcript",
				Arguments: []cli.Argument{idArg(), &cli.StringArg{Name: "name"}},
				Action:    r.TranscriptsRename,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a transcript and its chat history",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.TranscriptsDelete,
			},
			{
				Name:      "speakers",
				Usage:     "List speaker labels and their names",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.TranscriptsSpeakers,
			},
			{
				Name:      "speaker",
				Usage:     "Name a speaker label",
				Arguments: []cli.Argument{idArg(), &cli.StringArg{Name: "label"}, &cli.StringArg{Name: "name"}},
				Action:    r.TranscriptsSpeaker,
			},
			{
				Name:      "export",
				Usage:     "Export a transcript as txt, markdown, csv, srt or json",
				Arguments: []cli.Argument{idArg()},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format", Value: "markdown"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
				},
				Action: r.TranscriptsExport,
			},
			{
				Name:  "export-all",
				Usage: "Export every transcript into a directory with a manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format", Value: "txt"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent downloads (defaults to config)"},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second (defaults to config)"},
				},
				Action: r.TranscriptsExportAll,
			},
			{
				Name:   "exports",
				Usage:  "Show the local export log",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum entries"}, jsonFlag()},
				Action: r.TranscriptsExports,
			},
		},
	}
}

// chatCommand handles AI chat about a transcript
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Chat with the AI about a transcript",
		Commands: []*cli.Command{
			{
				Name:      "send",
				Usage:     "Send a message, or start the chat with the default prompt when no message is given",
				Arguments: []cli.Argument{idArg(), &cli.StringArg{Name: "message"}},
				Action:    r.ChatSend,
			},
			{
				Name:      "history",
				Usage:     "Print the chat history",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ChatHistory,
			},
			{
				Name:      "clear",
				Usage:     "Delete the chat history",
				Arguments: []cli.Argument{idArg()},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.ChatClear,
			},
		},
	}
}

// settingsCommand handles user preferences
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "View and change preferences",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the current settings",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Change one or more settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "quality", Usage: "low, medium or high"},
					&cli.StringFlag{Name: "theme", Usage: "light, dark or system"},
					&cli.StringFlag{Name: "system-prompt", Usage: "System prompt template, empty to clear"},
					&cli.StringFlag{Name: "default-prompt", Usage: "Prompt sent when a chat opens empty, empty to clear"},
				},
				Action: r.SettingsSet,
			},
			{
				Name:   "reset",
				Usage:  "Restore the default settings",
				Action: r.SettingsReset,
			},
		},
	}
}

// accountCommand handles account management
func accountCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage the signed-in account",
		Commands: []*cli.Command{
			{
				Name:   "password",
				Usage:  "Change the password",
				Action: r.AccountPassword,
			},
			{
				Name:      "email",
				Usage:     "Change the email address",
				Arguments: []cli.Argument{&cli.StringArg{Name: "email"}},
				Action:    r.AccountEmail,
			},
			{
				Name:  "export",
				Usage: "Download all account data as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path", Value: "scribe_account.json"},
				},
				Action: r.AccountExport,
			},
			{
				Name:   "delete",
				Usage:  "Delete the account and every transcript",
				Flags:  []cli.Flag{yesFlag()},
				Action: r.AccountDelete,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Action:  r.TUI,
	}
}
