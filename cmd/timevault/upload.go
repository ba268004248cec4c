package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/exogenesis/timevault/pkg/models"
)

type uploadArguments struct {
	dateTime string
	ext      string
	presign  bool
	ingest   bool
}

func (x *uploadArguments) timestamp(filePath string) (models.Timestamp, error) {
	if x.dateTime != "" {
		return models.ParseTimestamp(x.dateTime), nil
	}
	if filePath == "" {
		return nil, fmt.Errorf("--date-time is required without file")
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to stat %s", filePath)
	}
	return models.TimestampFromTime(stat.ModTime()), nil
}

func (x *uploadArguments) extension(filePath string) string {
	if x.ext != "" {
		return x.ext
	}
	return filepath.Ext(filePath)
}

func uploadCommand(args *arguments) *cli.Command {
	var uploadArgs uploadArguments

	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload a file to the canonical path of its date time",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date-time",
				Aliases:     []string{"d"},
				Usage:       "Epoch millis or ISO 8601 date time (default: modification time of file)",
				Destination: &uploadArgs.dateTime,
			},
			&cli.StringFlag{
				Name:        "ext",
				Aliases:     []string{"e"},
				Usage:       "File extension (default: extension of file)",
				Destination: &uploadArgs.ext,
			},
			&cli.BoolFlag{
				Name:        "presign",
				Usage:       "Show pre-signed PUT URL instead of uploading",
				Destination: &uploadArgs.presign,
			},
			&cli.BoolFlag{
				Name:        "ingest",
				Usage:       "Index the uploaded object",
				Destination: &uploadArgs.ingest,
			},
		},
		Action: func(c *cli.Context) error {
			if err := args.requireBucket(); err != nil {
				return err
			}
			filePath := c.Args().First()

			ts, err := uploadArgs.timestamp(filePath)
			if err != nil {
				return err
			}
			ext := uploadArgs.extension(filePath)

			hargs, closer, err := args.handlerArguments()
			if err != nil {
				return err
			}
			defer closer()

			bucket := hargs.Bucket()
			if uploadArgs.presign {
				url, err := hargs.S3Service().PresignUpload(bucket, hargs.Codec(), ts, ext)
				if err != nil {
					return err
				}
				return json.NewEncoder(c.App.Writer).Encode(url)
			}

			if filePath == "" {
				return fmt.Errorf("file is required without --presign")
			}

			path, err := hargs.Codec().Encode(ts, ext)
			if err != nil {
				return err
			}
			dst := models.S3Object{Region: bucket.Region, Bucket: bucket.Name, Key: bucket.ObjectKey(path)}
			if err := hargs.S3Service().UploadFile(c.Context, filePath, dst); err != nil {
				return err
			}
			logger.WithFields(logrus.Fields{"file": filePath, "dst": dst}).Info("Uploaded")
			fmt.Fprintln(c.App.Writer, dst.Key)

			if !uploadArgs.ingest {
				return nil
			}
			q := &models.IngestQueue{Region: dst.Region, Vault: dst.Bucket, Keys: []string{dst.Key}}
			_, err = hargs.IngestObjects(c.Context, q, false)
			return err
		},
	}
}
