// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func guestFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "guest",
		Usage: "Track as the guest viewer even when logged in",
	}
}

// setupCommand handles setup operations for the client store and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write the default config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the backend session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("VTX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session (the guest id is kept)",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the stored session and token expiry",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "import",
				Usage: "Import a bearer token from a browser request copied as cURL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:  "register",
				Usage: "Create an account (a verification code is emailed)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Display name",
						Required: true,
					},
					emailFlag(),
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Account password",
						Sources: cli.EnvVars("VTX_PASSWORD"),
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "verify",
				Usage:  "Verify a new account with the emailed code",
				Flags:  []cli.Flag{emailFlag(), codeFlag()},
				Action: r.AuthVerify,
			},
			{
				Name:   "resend-otp",
				Usage:  "Send a new verification code",
				Flags:  []cli.Flag{emailFlag()},
				Action: r.AuthResendOTP,
			},
			{
				Name:   "forgot-password",
				Usage:  "Email a password reset code",
				Flags:  []cli.Flag{emailFlag()},
				Action: r.AuthForgotPassword,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password with the emailed reset code",
				Flags: []cli.Flag{
					emailFlag(),
					codeFlag(),
					&cli.StringFlag{
						Name:    "new-password",
						Usage:   "New password",
						Sources: cli.EnvVars("VTX_NEW_PASSWORD"),
					},
					&cli.BoolFlag{
						Name:  "login",
						Usage: "Log in with the new password afterwards",
					},
				},
				Action: r.AuthResetPassword,
			},
		},
	}
}

func emailFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "email",
		Aliases:  []string{"e"},
		Usage:    "Account email",
		Required: true,
	}
}

func codeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "code",
		Usage:    "Code from the email",
		Required: true,
	}
}

// watchCommand launches the interactive terminal player.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"tui", "ui"},
		Usage:     "Launch the interactive player (feed, or the given video ids in order)",
		ArgsUsage: "[video-id...]",
		Flags: []cli.Flag{
			guestFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where player logs are written",
				Value: "./tmp/vtx-player.log",
			},
		},
		Action: r.Watch,
	}
}

// replayCommand drives the tracker from a scripted session.
func replayCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Replay a scripted playback session against the backend",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "script"},
		},
		Flags: []cli.Flag{
			guestFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the requests without sending them or touching stored view flags",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
		},
		Action: r.Replay,
	}
}

// historyCommand handles watch history operations
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Watch history operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List watch history with progress",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "resumable",
						Usage: "Only entries between 5% and 95% watched",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "export",
				Usage: "Export watch history to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (directory for markdown)",
					},
					&cli.BoolFlag{
						Name:  "thumbnails",
						Usage: "Download thumbnails with a markdown export",
					},
					&cli.BoolFlag{
						Name:  "resumable",
						Usage: "Only entries between 5% and 95% watched",
					},
				},
				Action: r.HistoryExport,
			},
			{
				Name:      "remove",
				Usage:     "Remove history entries by id",
				ArgsUsage: "[entry-id...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "finished",
						Usage: "Remove every entry watched 95% or more",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent delete requests",
						Value: 3,
					},
				},
				Action: r.HistoryRemove,
			},
			{
				Name:  "clear",
				Usage: "Clear the whole watch history",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm clearing",
					},
				},
				Action: r.HistoryClear,
			},
		},
	}
}

// videosCommand handles feed and video operations
func videosCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "id"}} }

	return &cli.Command{
		Name:  "videos",
		Usage: "Browse videos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the feed",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "mine",
						Usage: "List your own uploads",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosList,
			},
			{
				Name:      "show",
				Usage:     "Show one video",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosShow,
			},
			{
				Name:      "analytics",
				Usage:     "Show view and watch-time analytics for one of your videos",
				Arguments: idArg(),
				Action:    r.VideosAnalytics,
			},
			{
				Name:      "open",
				Usage:     "Open the video page in a browser",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "resume",
						Usage: "Start playback at this many seconds",
					},
				},
				Action: r.VideosOpen,
			},
			{
				Name:      "like",
				Usage:     "Toggle your like on a video",
				Arguments: idArg(),
				Action:    r.VideosLike,
			},
			{
				Name:      "share",
				Usage:     "Record a share of a video",
				Arguments: idArg(),
				Action:    r.VideosShare,
			},
			commentsCommand(r),
			{
				Name:      "edit",
				Usage:     "Change the title or description of one of your videos",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "New title",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "New description",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your videos",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm deletion",
					},
				},
				Action: r.VideosDelete,
			},
			{
				Name:  "thumbnail",
				Usage: "Replace the thumbnail of one of your videos",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "file"},
				},
				Action: r.VideosThumbnail,
			},
			{
				Name:      "upload",
				Usage:     "Upload a video file (200 MB at most)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Video title",
					},
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Video description",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.VideosUpload,
			},
		},
	}
}

func commentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Read and write comments on a video",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the comments on a video",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CommentsList,
			},
			{
				Name:      "add",
				Usage:     "Comment on a video",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"m"},
						Usage:    "Comment text",
						Required: true,
					},
				},
				Action: r.CommentsAdd,
			},
			{
				Name:      "delete",
				Usage:     "Delete one of your comments",
				Arguments: []cli.Argument{&cli.StringArg{Name: "comment-id"}},
				Action:    r.CommentsDelete,
			},
		},
	}
}

// profileCommand handles the logged-in account
func profileCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Manage your account profile",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the stored profile",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ProfileShow,
			},
			{
				Name:  "update",
				Usage: "Change your display name or bio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name",
					},
					&cli.StringFlag{
						Name:  "bio",
						Usage: "Profile bio",
					},
				},
				Action: r.ProfileUpdate,
			},
			{
				Name:  "password",
				Usage: "Change your password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "current",
						Usage:   "Current password",
						Sources: cli.EnvVars("VTX_PASSWORD"),
					},
					&cli.StringFlag{
						Name:    "new",
						Usage:   "New password",
						Sources: cli.EnvVars("VTX_NEW_PASSWORD"),
					},
				},
				Action: r.ProfilePassword,
			},
			{
				Name:  "avatar",
				Usage: "Set or remove your profile picture",
				Commands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Upload an image as your avatar",
						Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
						Action:    r.ProfileAvatarSet,
					},
					{
						Name:   "remove",
						Usage:  "Remove your avatar",
						Action: r.ProfileAvatarRemove,
					},
				},
			},
		},
	}
}

// identityCommand handles the stored viewer identity
func identityCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "identity",
		Usage: "Inspect the viewer identity used for tracking",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the current viewer, guest id and registered views",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.IdentityShow,
			},
			{
				Name:   "reset-guest",
				Usage:  "Generate a new guest id",
				Action: r.IdentityResetGuest,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	pathArg := func() []cli.Argument { return []cli.Argument{&cli.StringArg{Name: "path"}} }

	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend API",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: pathArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: pathArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
						Value:   "{}",
					},
				},
				Action: r.APIPost,
			},
			{
				Name:      "delete",
				Usage:     "Direct DELETE",
				Arguments: pathArg(),
				Action:    r.APIDelete,
			},
		},
	}
}
