package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/exogenesis/timevault/internal"
)

// Logger is common logger gateway
var Logger = internal.Logger

// Response is
type Response struct {
	Code    int
	Message interface{}
}

type handler func(c *gin.Context) (*Response, Error)

func sendResponse(c *gin.Context, resp *Response, err Error) {
	var code int
	if resp != nil {
		code = resp.Code
	} else if err != nil {
		code = err.Code()
	}

	Logger.WithFields(logrus.Fields{
		"path":       c.FullPath(),
		"request_id": c.GetHeader("x-request-id"),
		"ipaddr":     c.ClientIP(),
		"user_agent": c.Request.UserAgent(),
		"resp_code":  code,
	}).Info("Audit log")

	if err != nil {
		r := Logger.WithFields(logrus.Fields{
			"error":  err,
			"params": c.Params,
			"url":    c.Request.URL,
		})
		if code >= 500 {
			internal.HandleError(err)
		} else {
			r.Warn("Request failed")
		}
		c.JSON(err.Code(), gin.H{"message": err.Message()})
	} else {
		c.JSON(resp.Code, resp.Message)
	}
}

func handleRequest(c *gin.Context, hdlr handler) {
	resp, err := hdlr(c)
	sendResponse(c, resp, err)
}
