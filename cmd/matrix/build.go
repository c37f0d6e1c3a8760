package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sivrad/matrix-tools/build"
	"github.com/sivrad/matrix-tools/gen"
	"github.com/sivrad/matrix-tools/install"
)

var cmdBuild = &cli.Command{
	Name:  "build",
	Usage: "generate the TypeScript package for a collection directory",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "directory the src/ tree is written to (default: the collection directory)",
			EnvVars: []string{"MATRIX_OUT"},
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Usage:   "number of type modules generated concurrently",
			Value:   1,
			EnvVars: []string{"MATRIX_JOBS"},
		},
		&cli.BoolFlag{
			Name:  "docs",
			Usage: "also write a markdown overview to docs/types.md",
		},
		&cli.BoolFlag{
			Name:  "validate",
			Usage: "validate every document against the remote JSON-Schemas first",
		},
		&cli.BoolFlag{
			Name:  "install",
			Usage: "add the collection packages the types extend with yarn",
		},
		&cli.StringFlag{
			Name:    "root-package",
			Usage:   "package exporting the universal base type",
			Value:   gen.DefaultConfig().RootPackage,
			EnvVars: []string{"MATRIX_ROOT_PACKAGE"},
		},
		&cli.StringFlag{
			Name:    "root-class",
			Usage:   "class every root type extends",
			Value:   gen.DefaultConfig().RootClass,
			EnvVars: []string{"MATRIX_ROOT_CLASS"},
		},
		&cli.StringFlag{
			Name:    "package-prefix",
			Usage:   "prefix of external collection package names",
			Value:   gen.DefaultConfig().PackagePrefix,
			EnvVars: []string{"MATRIX_PACKAGE_PREFIX"},
		},
		&cli.StringSliceFlag{
			Name:  "builtin",
			Usage: "additional type name that needs no import (repeatable)",
		},
	}, schemaFlags...),
	Action: runBuild,
}

func generatorConfig(cctx *cli.Context) *gen.Config {
	cfg := gen.DefaultConfig()
	cfg.RootPackage = cctx.String("root-package")
	cfg.RootClass = cctx.String("root-class")
	cfg.PackagePrefix = cctx.String("package-prefix")
	cfg.Builtins = append(cfg.Builtins, cctx.StringSlice("builtin")...)
	return cfg
}

func runBuild(cctx *cli.Context) error {
	ctx := cctx.Context
	logger := slog.Default()

	opts := build.Options{
		Dir:    cctx.String("dir"),
		OutDir: cctx.String("out"),
		Config: generatorConfig(cctx),
		Logger: logger,
		Jobs:   cctx.Int("jobs"),
		Docs:   cctx.Bool("docs"),
	}
	if cctx.Bool("validate") {
		opts.Validator = remoteValidator(cctx)
	}
	if cctx.Bool("install") {
		opts.Installer = install.NewYarn(logger)
	}

	b := build.NewBuilder(opts)
	rep, err := b.Run(ctx)
	b.Wait()
	if err != nil {
		return err
	}
	if len(rep.Failures) > 0 {
		for _, f := range rep.Failures {
			printError(os.Stderr, f.Err)
		}
		return fmt.Errorf("%d type document(s) failed: %w", len(rep.Failures), errReported)
	}

	for _, p := range rep.Written {
		fmt.Println(p)
	}
	return nil
}
