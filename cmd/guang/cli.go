package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/console"
	"github.com/guangnotepad/guang/internal/editor"
	"github.com/guangnotepad/guang/internal/errors"
	"github.com/guangnotepad/guang/internal/ops"
	"github.com/guangnotepad/guang/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	cfg = localConfig(cfg)
	app := &cli.App{
		Name:    "guang",
		Usage:   "Plain and rich text notepad",
		Version: Version,
		Commands: []*cli.Command{
			editCmd(db, cfg),
			detectCmd(cfg),
			catCmd(db, cfg),
			writeCmd(db, cfg),
			convertCmd(db, cfg),
			renderCmd(cfg),
			recentCmd(db, cfg),
			forgetCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// localConfig returns a copy of cfg for command-line use, where the user
// names files directly and the allowed-directory check does not apply.
func localConfig(cfg *config.Config) *config.Config {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	local := *cfg
	local.AllowUnsafePaths = true
	return &local
}

// editCmd creates the edit command.
func editCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a document in the interactive console",
		ArgsUsage: "[file]",
		Action: func(c *cli.Context) error {
			opts := editor.Options{Config: cfg, Logger: logger}
			if db != nil {
				opts.Recorder = &ops.Recorder{DB: db, Keep: cfg.RecentLimit}
			}
			con := console.New(console.Options{
				In:     os.Stdin,
				Out:    os.Stdout,
				Editor: opts,
			})
			if c.NArg() > 0 {
				// Failures are shown in the console; editing starts empty.
				_ = con.Controller().OpenPath(c.Args().First())
			}
			if code := con.Run(); code != 0 {
				return cli.Exit("unsaved changes were not saved", code)
			}
			return nil
		},
	}
}

// detectCmd creates the detect command.
func detectCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Guess the charset of a text file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			output, err := ops.Detect(cfg, ops.DetectInput{Path: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// catCmd creates the cat command.
func catCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Print the text of a document",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "encoding", Aliases: []string{"e"}, Usage: "Charset of a plain file (skips detection)"},
			&cli.BoolFlag{Name: "json", Usage: "Print metadata and text as JSON"},
			&cli.BoolFlag{Name: "runs", Usage: "Include styled runs (implies --json)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Read(db, cfg, ops.ReadInput{
				Path:        c.Args().First(),
				Encoding:    c.String("encoding"),
				IncludeRuns: c.Bool("runs"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") || c.Bool("runs") {
				return outputJSON(output)
			}
			_, err = io.WriteString(os.Stdout, output.Text)
			return err
		},
	}
}

// writeCmd creates the write command.
func writeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "Write a document (reads text from stdin)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "encoding", Aliases: []string{"e"}, Usage: "Charset for a plain file (default: config default_encoding)"},
			&cli.BoolFlag{Name: "overwrite", Usage: "Replace an existing file"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.Write(db, cfg, ops.WriteInput{
				Path:      c.Args().First(),
				Text:      text,
				Encoding:  c.String("encoding"),
				Overwrite: c.Bool("overwrite"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// convertCmd creates the convert command.
func convertCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Re-encode a text file or convert between .txt and .rtf",
		ArgsUsage: "<source> <dest>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Charset of a plain source (skips detection)"},
			&cli.StringFlag{Name: "encoding", Aliases: []string{"e"}, Usage: "Charset for a plain destination"},
			&cli.BoolFlag{Name: "overwrite", Usage: "Replace an existing destination"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return outputError(errors.NewInvalidRequest("convert needs <source> and <dest>"))
			}
			output, err := ops.Convert(db, cfg, ops.ConvertInput{
				Source:         c.Args().Get(0),
				Dest:           c.Args().Get(1),
				SourceEncoding: c.String("from"),
				Encoding:       c.String("encoding"),
				Overwrite:      c.Bool("overwrite"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// renderCmd creates the render command.
func renderCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a document to HTML (plain text as Markdown)",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "encoding", Aliases: []string{"e"}, Usage: "Charset of a plain file (skips detection)"},
			&cli.BoolFlag{Name: "literal", Usage: "Render plain text verbatim"},
			&cli.BoolFlag{Name: "json", Usage: "Wrap the HTML in JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Render(cfg, ops.RenderInput{
				Path:     c.Args().First(),
				Encoding: c.String("encoding"),
				Literal:  c.Bool("literal"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("json") {
				return outputJSON(output)
			}
			_, err = io.WriteString(os.Stdout, output.HTML)
			return err
		},
	}
}

// recentCmd creates the recent command.
func recentCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "List recently opened or saved documents",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: cfg.RecentLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Recent(db, ops.RecentInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Browse recent documents in a local web viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to listen on"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 7410, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			if db == nil {
				return outputError(errors.NewInvalidRequest("the viewer needs the recent-documents database"))
			}
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// forgetCmd creates the forget command.
func forgetCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "forget",
		Usage:     "Remove a document from the recent list",
		ArgsUsage: "<id|file>",
		Action: func(c *cli.Context) error {
			input := ops.ForgetInput{}
			arg := c.Args().First()
			// Anything with a document extension is a path.
			if _, err := codec.FormatForPath(arg); err == nil {
				input.Path = arg
			} else {
				input.ID = arg
			}

			output, err := ops.Forget(db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var gErr *errors.GuangError
	if stderrors.As(err, &gErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", gErr.Code, gErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin, keeping surrounding whitespace.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
