package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"github.com/exogenesis/timevault/pkg/api"
)

type serveArguments struct {
	addr string
	port int
}

func serveCommand(args *arguments) *cli.Command {
	var serveArgs serveArguments

	return &cli.Command{
		Name:  "serve",
		Usage: "timevault API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Aliases:     []string{"a"},
				Value:       "127.0.0.1",
				Usage:       "Bind address",
				Destination: &serveArgs.addr,
			},
			&cli.IntFlag{
				Name:        "port",
				Aliases:     []string{"p"},
				Value:       10080,
				Usage:       "Bind port number",
				Destination: &serveArgs.port,
			},
		},

		Action: func(c *cli.Context) error {
			hargs, closer, err := args.handlerArguments()
			if err != nil {
				return err
			}
			defer closer()

			logger.WithFields(logrus.Fields{
				"backend": args.Backend,
				"bucket":  hargs.BucketName,
				"addr":    serveArgs.addr,
				"port":    serveArgs.port,
			}).Info("Start API server")

			r := gin.Default()
			v1 := r.Group("/api/v1")
			api.SetupRoute(v1, hargs.APIArguments())

			bindAddr := fmt.Sprintf("%s:%d", serveArgs.addr, serveArgs.port)
			return r.Run(bindAddr)
		},
	}
}
