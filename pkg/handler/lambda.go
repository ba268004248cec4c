package handler

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/exogenesis/timevault/internal"
)

// Logger is common logger gateway
var Logger = internal.Logger

// Handler has main logic of the lambda function
type Handler func(ctx context.Context, args Arguments) error

var (
	baseArgs    Arguments
	baseArgsErr error
	baseOnce    sync.Once
)

// LoadArguments binds environment variables and creates clients at first call.
// Later calls return the same Arguments.
func LoadArguments() (Arguments, error) {
	baseOnce.Do(func() {
		if baseArgsErr = baseArgs.BindEnvVars(); baseArgsErr != nil {
			return
		}

		SetLogLevel(baseArgs.LogLevel)
		if baseArgsErr = internal.InitErrorHandler(baseArgs.SentryDSN, baseArgs.SentryEnv); baseArgsErr != nil {
			return
		}
		baseArgs.SetupRepositories()
	})

	return baseArgs, baseArgsErr
}

// StartLambda initialize AWS Lambda and invokes handler
func StartLambda(handler Handler) {
	Logger.SetLevel(logrus.InfoLevel)
	internal.SetJSONFormat()

	lambda.Start(func(ctx context.Context, event interface{}) error {
		defer internal.FlushError()

		args, err := LoadArguments()
		if err != nil {
			internal.HandleError(err)
			return err
		}

		Logger.WithFields(logrus.Fields{"args": args, "event": event}).Debug("Start handler")
		args.Event = event

		if err := handler(ctx, args); err != nil {
			Logger.WithFields(logrus.Fields{"args": args, "event": event}).Error("Failed Handler")
			err = errors.Wrap(err, "Failed Handler")
			internal.HandleError(err)
			return err
		}

		return nil
	})
}

// SetLogLevel changes log level if level is not empty
func SetLogLevel(level string) {
	if level != "" {
		internal.SetLogLevel(level)
	}
}
