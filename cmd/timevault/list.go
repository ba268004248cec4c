package main

import (
	"fmt"
	"strconv"

	cli "github.com/urfave/cli/v2"

	"github.com/exogenesis/timevault/internal/service"
	"github.com/exogenesis/timevault/pkg/handler"
)

type listLevel struct {
	name  string
	usage string
	nargs int
	call  func(c *cli.Context, enum service.Enumerator, n []int) ([]string, error)
}

var listLevels = []listLevel{
	{"years", "", 0, func(c *cli.Context, enum service.Enumerator, n []int) ([]string, error) {
		return enum.GetYears(c.Context)
	}},
	{"months", "YEAR", 1, func(c *cli.Context, enum service.Enumerator, n []int) ([]string, error) {
		return enum.GetMonths(c.Context, n[0])
	}},
	{"days", "YEAR MONTH", 2, func(c *cli.Context, enum service.Enumerator, n []int) ([]string, error) {
		return enum.GetDays(c.Context, n[0], n[1])
	}},
	{"objects", "YEAR MONTH DAY", 3, func(c *cli.Context, enum service.Enumerator, n []int) ([]string, error) {
		return enum.GetObjects(c.Context, n[0], n[1], n[2])
	}},
}

func intArgs(c *cli.Context, nargs int) ([]int, error) {
	if c.NArg() != nargs {
		return nil, fmt.Errorf("%d arguments are required, but got %d", nargs, c.NArg())
	}

	values := make([]int, nargs)
	for i, arg := range c.Args().Slice() {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("argument must be integer: %q", arg)
		}
		values[i] = v
	}
	return values, nil
}

func (x *arguments) enumerator(hargs *handler.Arguments) (service.Enumerator, error) {
	switch x.Source {
	case sourceDB:
		return hargs.IndexEnumerator(), nil
	case sourceBucket:
		if err := x.requireBucket(); err != nil {
			return nil, err
		}
		return hargs.BucketEnumerator(), nil
	default:
		return nil, fmt.Errorf("unsupported source: %q", x.Source)
	}
}

func listCommand(args *arguments) *cli.Command {
	var subcommands []*cli.Command
	for i := range listLevels {
		level := listLevels[i]
		subcommands = append(subcommands, &cli.Command{
			Name:      level.name,
			Usage:     "List " + level.name,
			ArgsUsage: level.usage,
			Action: func(c *cli.Context) error {
				n, err := intArgs(c, level.nargs)
				if err != nil {
					return err
				}

				hargs, closer, err := args.handlerArguments()
				if err != nil {
					return err
				}
				defer closer()

				enum, err := args.enumerator(hargs)
				if err != nil {
					return err
				}

				values, err := level.call(c, enum, n)
				if err != nil {
					return err
				}
				for _, v := range values {
					fmt.Fprintln(c.App.Writer, v)
				}
				return nil
			},
		})
	}

	return &cli.Command{
		Name:  "list",
		Usage: "Enumerate years, months, days and objects",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "source",
				Usage:       "Enumeration source [db|bucket]",
				Value:       sourceDB,
				Destination: &args.Source,
			},
		},
		Subcommands: subcommands,
	}
}
