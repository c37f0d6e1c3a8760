package main

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/sivrad/matrix-tools/build"
	"github.com/sivrad/matrix-tools/gen"
)

var cmdTree = &cli.Command{
	Name:   "tree",
	Usage:  "print the inheritance hierarchy of a collection's types",
	Action: runTree,
}

func runTree(cctx *cli.Context) error {
	b := build.NewBuilder(build.Options{
		Dir:    cctx.String("dir"),
		Logger: slog.Default(),
	})
	if err := b.Load(cctx.Context); err != nil {
		return err
	}
	fmt.Print(gen.DefaultConfig().HierarchyTree(b.Schemas()))
	return nil
}
