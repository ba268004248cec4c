package main

import (
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/exogenesis/timevault/internal"
	"github.com/exogenesis/timevault/pkg/handler"
)

var logger = internal.Logger

func newApp() *cli.App {
	var args arguments

	return &cli.App{
		Name:  "timevault",
		Usage: "CLI utility of timevault media index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "stack-name",
				Aliases:     []string{"s"},
				Usage:       "StackName of CloudFormation to resolve tables and bucket",
				Destination: &args.StackName,
			},
			&cli.StringFlag{
				Name:        "region",
				Aliases:     []string{"r"},
				Usage:       "AWS region",
				EnvVars:     []string{"AWS_REGION"},
				Destination: &args.Region,
			},
			&cli.StringFlag{
				Name:        "backend",
				Aliases:     []string{"b"},
				Usage:       "Index backend [dynamodb|sqlite]",
				Value:       backendDynamoDB,
				EnvVars:     []string{"TIMEVAULT_BACKEND"},
				Destination: &args.Backend,
			},
			&cli.StringFlag{
				Name:        "sqlite-path",
				Usage:       "SQLite database file for sqlite backend",
				Value:       "timevault.db",
				EnvVars:     []string{"TIMEVAULT_SQLITE_PATH"},
				Destination: &args.SQLitePath,
			},
			&cli.StringFlag{
				Name:        "table",
				Aliases:     []string{"t"},
				Usage:       "DynamoDB table name of both lookup index and collection",
				EnvVars:     []string{"TABLE_NAME"},
				Destination: &args.TableName,
			},
			&cli.StringFlag{
				Name:        "lookup-table",
				Usage:       "DynamoDB table name of lookup index",
				EnvVars:     []string{"LOOKUP_TABLE_NAME"},
				Destination: &args.LookupTableName,
			},
			&cli.StringFlag{
				Name:        "collection-table",
				Usage:       "DynamoDB table name of collection records",
				EnvVars:     []string{"COLLECTION_TABLE_NAME"},
				Destination: &args.CollectionTableName,
			},
			&cli.StringFlag{
				Name:        "bucket",
				Usage:       "S3 bucket name where media is stored",
				EnvVars:     []string{"STANDARD_BUCKET_NAME"},
				Destination: &args.BucketName,
			},
			&cli.StringFlag{
				Name:        "bucket-prefix",
				Usage:       "Key prefix of canonical paths in the bucket",
				EnvVars:     []string{"BUCKET_PREFIX"},
				Destination: &args.BucketPrefix,
			},
			&cli.BoolFlag{
				Name:        "pad-month-day",
				Usage:       "Use 2 digits month and day directories",
				EnvVars:     []string{"PAD_MONTH_DAY"},
				Destination: &args.PadMonthDay,
			},
			&cli.StringFlag{
				Name:        "dynamo-endpoint",
				Usage:       "DynamoDB endpoint, e.g. http://localhost:8000",
				EnvVars:     []string{"DYNAMO_ENDPOINT"},
				Destination: &args.DynamoEndpoint,
			},
			&cli.StringFlag{
				Name:        "s3-endpoint",
				Usage:       "S3 endpoint, e.g. http://localhost:9000",
				EnvVars:     []string{"S3_ENDPOINT"},
				Destination: &args.S3Endpoint,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "Log level [trace|debug|info|warn|error]",
				Value:       "info",
				EnvVars:     []string{"LOG_LEVEL"},
				Destination: &args.LogLevel,
			},
		},
		Before: func(c *cli.Context) error {
			handler.SetLogLevel(args.LogLevel)
			return nil
		},
		Commands: []*cli.Command{
			pathCommand(&args),
			ingestCommand(&args),
			listCommand(&args),
			recordsCommand(&args),
			uploadCommand(&args),
			serveCommand(&args),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.WithError(err).Fatal("Abort")
	}
}
