package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/sivrad/matrix-tools/schema"
)

var cmdMakeType = &cli.Command{
	Name:      "mk-type",
	Usage:     "create a new type document",
	ArgsUsage: `<name>`,
	Action:    runMakeType,
}

func runMakeType(cctx *cli.Context) error {
	if cctx.Args().Len() != 1 {
		return cli.Exit("mk-type requires exactly one type name", 2)
	}
	p, err := schema.MakeType(cctx.String("dir"), cctx.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(p)
	return nil
}
