package internal

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger can be modified by external for testing
var Logger = logrus.New()

// SetLogLevel changes level of Logger. Unknown level is ignored.
func SetLogLevel(level string) {
	switch strings.ToUpper(level) {
	case "TRACE":
		Logger.SetLevel(logrus.TraceLevel)
	case "DEBUG":
		Logger.SetLevel(logrus.DebugLevel)
	case "INFO":
		Logger.SetLevel(logrus.InfoLevel)
	case "WARN":
		Logger.SetLevel(logrus.WarnLevel)
	case "ERROR":
		Logger.SetLevel(logrus.ErrorLevel)
	}
}

// SetJSONFormat makes Logger output JSON for CloudWatch Logs
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{})
}
