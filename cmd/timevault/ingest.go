package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/exogenesis/timevault/pkg/models"
)

type ingestArguments struct {
	vault      string
	fromBucket bool
}

func ingestCommand(args *arguments) *cli.Command {
	var ingestArgs ingestArguments

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Index canonical paths into lookup index and collection",
		ArgsUsage: "[PATH...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "vault",
				Aliases:     []string{"v"},
				Usage:       "Vault name of records (default: bucket name)",
				Destination: &ingestArgs.vault,
			},
			&cli.BoolFlag{
				Name:        "from-bucket",
				Usage:       "Ingest all objects under bucket prefix instead of arguments",
				Destination: &ingestArgs.fromBucket,
			},
		},
		Action: func(c *cli.Context) error {
			hargs, closer, err := args.handlerArguments()
			if err != nil {
				return err
			}
			defer closer()

			vault := ingestArgs.vault
			if vault == "" {
				vault = hargs.BucketName
			}
			if vault == "" {
				return fmt.Errorf("--vault or --bucket is required")
			}

			bucket := hargs.Bucket()
			q := &models.IngestQueue{Region: bucket.Region, Vault: vault}

			if ingestArgs.fromBucket {
				if err := args.requireBucket(); err != nil {
					return err
				}
				keys, err := hargs.S3Service().ListAllKeys(c.Context, bucket.Region, bucket.Name, bucket.BasePrefix())
				if err != nil {
					return err
				}
				q.Keys = keys
			} else {
				if c.NArg() == 0 {
					return fmt.Errorf("path is required without --from-bucket")
				}
				for _, path := range c.Args().Slice() {
					q.Keys = append(q.Keys, bucket.ObjectKey(path))
				}
			}

			logger.WithFields(logrus.Fields{
				"vault": vault,
				"keys":  len(q.Keys),
			}).Info("Start ingestion")

			_, err = hargs.IngestObjects(c.Context, q, false)
			return err
		},
	}
}
