package main

import (
	"encoding/json"
	"fmt"

	cli "github.com/urfave/cli/v2"

	"github.com/exogenesis/timevault/pkg/models"
)

func pathCommand(args *arguments) *cli.Command {
	var ext string

	return &cli.Command{
		Name:  "path",
		Usage: "Convert between timestamp and canonical path",
		Subcommands: []*cli.Command{
			{
				Name:      "encode",
				Usage:     "Generate canonical path of a timestamp (epoch millis or ISO 8601)",
				ArgsUsage: "TIMESTAMP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "ext",
						Aliases:     []string{"e"},
						Usage:       "File extension such as mov",
						Required:    true,
						Destination: &ext,
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("one timestamp is required")
					}

					path, err := args.Codec().Encode(models.ParseTimestamp(c.Args().First()), ext)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, path)
					return nil
				},
			},
			{
				Name:      "decode",
				Usage:     "Parse canonical paths and show date time as JSON",
				ArgsUsage: "PATH [PATH...]",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return fmt.Errorf("path is required")
					}

					enc := json.NewEncoder(c.App.Writer)
					for _, path := range c.Args().Slice() {
						dt, err := models.DecodePath(path)
						if err != nil {
							return err
						}
						if err := enc.Encode(dt); err != nil {
							return err
						}
					}
					return nil
				},
			},
		},
	}
}
