package main

import (
	"fmt"
	"log/slog"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"

	"github.com/sivrad/matrix-tools/lint"
	"github.com/sivrad/matrix-tools/pkg/robusthttp"
)

var schemaFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "collection-schema-url",
		Usage:   "JSON-Schema collection manifests are validated against",
		Value:   lint.DefaultCollectionSchemaURL,
		EnvVars: []string{"MATRIX_COLLECTION_SCHEMA_URL"},
	},
	&cli.StringFlag{
		Name:    "type-schema-url",
		Usage:   "JSON-Schema type documents are validated against",
		Value:   lint.DefaultTypeSchemaURL,
		EnvVars: []string{"MATRIX_TYPE_SCHEMA_URL"},
	},
	&cli.StringFlag{
		Name:    "schema-cache-dir",
		Usage:   "directory fetched schemas are cached in (empty disables the cache)",
		Value:   lint.DefaultCacheDir(),
		EnvVars: []string{"MATRIX_SCHEMA_CACHE_DIR"},
	},
}

var cmdLint = &cli.Command{
	Name:      "lint",
	Usage:     "check a collection directory, or individual documents",
	ArgsUsage: `[<path>...]`,
	Flags: append([]cli.Flag{
		&cli.BoolFlag{
			Name:  "offline",
			Usage: "skip validation against the remote JSON-Schemas",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print issues as JSON lines",
		},
	}, schemaFlags...),
	Action: runLint,
}

func remoteValidator(cctx *cli.Context) *lint.RemoteValidator {
	client := robusthttp.NewClient(robusthttp.WithLogger(slog.Default()))
	rv := lint.NewRemoteValidator(client, cctx.String("schema-cache-dir"))
	rv.URLs[lint.KindCollection] = cctx.String("collection-schema-url")
	rv.URLs[lint.KindType] = cctx.String("type-schema-url")
	return rv
}

func runLint(cctx *cli.Context) error {
	ctx := cctx.Context

	l := lint.NewLinter(nil, nil)
	if !cctx.Bool("offline") {
		l.Validator = remoteValidator(cctx)
	}

	var issues []lint.LintIssue
	if cctx.Args().Len() == 0 {
		found, err := l.LintDir(ctx, cctx.String("dir"))
		if err != nil {
			return err
		}
		issues = found
	} else {
		for _, p := range cctx.Args().Slice() {
			if _, err := os.Stat(p); err != nil {
				issues = append(issues, lint.LintIssue{
					FilePath:  p,
					LintLevel: "error",
					LintName:  "file-not-found",
					Message:   err.Error(),
				})
				continue
			}
			found, err := l.LintFile(ctx, p)
			if err != nil {
				return err
			}
			issues = append(issues, found...)
		}
	}

	for _, iss := range issues {
		if cctx.Bool("json") {
			b, err := gojson.Marshal(iss)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
		} else {
			fmt.Println(iss.String())
		}
	}
	if lint.HasErrors(issues) {
		return fmt.Errorf("lint found %d issue(s): %w", len(issues), errReported)
	}
	return nil
}
