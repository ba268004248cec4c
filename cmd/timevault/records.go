package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	cli "github.com/urfave/cli/v2"
)

func recordsCommand(args *arguments) *cli.Command {
	return &cli.Command{
		Name:      "records",
		Usage:     "Show collection records of a year as JSON lines",
		ArgsUsage: "YEAR",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("year is required")
			}
			year, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("year must be integer: %q", c.Args().First())
			}

			hargs, closer, err := args.handlerArguments()
			if err != nil {
				return err
			}
			defer closer()

			items, err := hargs.LookupService().GetCollectionItems(c.Context, year)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			for _, item := range items {
				if err := enc.Encode(item); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
