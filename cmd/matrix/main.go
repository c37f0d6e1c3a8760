package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	"github.com/sivrad/matrix-tools/schema"
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("failures reported")

func main() {
	if err := run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "matrix",
		Usage:   "generate TypeScript packages from matrix type documents",
		Version: versioninfo.Short(),
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "collection directory holding collection.json and types/",
			Value:   ".",
			EnvVars: []string{"MATRIX_DIR"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			Value:   "warn",
			EnvVars: []string{"MATRIX_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:    "log-json",
			Usage:   "log as JSON lines",
			EnvVars: []string{"MATRIX_LOG_JSON"},
		},
	}
	app.Before = func(cctx *cli.Context) error {
		configLogger(cctx, os.Stderr)
		return nil
	}
	app.Commands = []*cli.Command{
		cmdBuild,
		cmdLint,
		cmdMakeType,
		cmdTree,
	}
	return app.Run(args)
}

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler = slog.NewTextHandler(writer, opts)
	if cctx.Bool("log-json") {
		handler = slog.NewJSONHandler(writer, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// printError renders a failure for the user. Known failures print as "<Kind>: <message>"; anything else
// is a defect and asks to be reported.
func printError(w io.Writer, err error) {
	if errors.Is(err, errReported) || errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	var se *schema.Error
	if errors.As(err, &se) {
		fmt.Fprintln(w, se.Detail())
		return
	}
	fmt.Fprintf(w, "UNKNOWN ERROR. PLEASE REPORT.\nerror: %v\n", err)
}
