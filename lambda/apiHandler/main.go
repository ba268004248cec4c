package main

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/exogenesis/timevault/internal"
	"github.com/exogenesis/timevault/pkg/api"
	"github.com/exogenesis/timevault/pkg/handler"
)

var logger = handler.Logger

// NewEngine builds gin engine serving /api/v1
func NewEngine(args handler.Arguments) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	v1 := r.Group("/api/v1")
	api.SetupRoute(v1, args.APIArguments())
	return r
}

func main() {
	gin.SetMode(gin.ReleaseMode)
	internal.SetJSONFormat()

	args, err := handler.LoadArguments()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load arguments")
	}
	adapter := ginadapter.New(NewEngine(args))

	lambda.Start(func(req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		defer internal.FlushError()

		logger.WithFields(logrus.Fields{
			"path":   req.Path,
			"method": req.HTTPMethod,
		}).Debug("entering handler")

		return adapter.Proxy(req)
	})
}
