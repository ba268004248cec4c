package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/exogenesis/timevault/internal/service"
	"github.com/exogenesis/timevault/pkg/models"
)

// Arguments has enumerators and S3 access to serve. Nil enumerator disables its routes.
type Arguments struct {
	// Index serves /db/...
	Index service.Enumerator
	// Bucket serves /bucket/...
	Bucket service.Enumerator

	S3           *service.S3Service
	UploadBucket models.Bucket
	Codec        models.PathCodec
}

// SetupRoute registers all routes to r
func SetupRoute(r *gin.RouterGroup, args Arguments) {
	sources := map[string]service.Enumerator{
		"db":     args.Index,
		"bucket": args.Bucket,
	}

	for name, enum := range sources {
		if enum == nil {
			continue
		}

		h := &enumerateHandler{enum: enum}
		g := r.Group("/" + name)
		g.GET("/years", func(c *gin.Context) {
			handleRequest(c, h.getYears)
		})
		g.GET("/years/:year/months", func(c *gin.Context) {
			handleRequest(c, h.getMonths)
		})
		g.GET("/years/:year/months/:month/days", func(c *gin.Context) {
			handleRequest(c, h.getDays)
		})
		g.GET("/years/:year/months/:month/days/:day/objects", func(c *gin.Context) {
			handleRequest(c, h.getObjects)
		})
	}

	if args.S3 != nil {
		h := &uploadHandler{s3: args.S3, bucket: args.UploadBucket, codec: args.Codec}
		r.POST("/bucket/upload-url", func(c *gin.Context) {
			handleRequest(c, h.createUploadURL)
		})
	}
}

type enumerateHandler struct {
	enum service.Enumerator
}

var paramRanges = map[string][2]int{
	"year":  {0, 1<<31 - 1},
	"month": {1, 12},
	"day":   {1, 31},
}

func intParam(c *gin.Context, name string) (int, Error) {
	raw := c.Param(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newUserErrorf(http.StatusBadRequest, "%s must be integer: %q", name, raw)
	}

	if r, ok := paramRanges[name]; ok && (v < r[0] || r[1] < v) {
		return 0, newUserErrorf(http.StatusBadRequest, "%s is out of range: %d", name, v)
	}
	return v, nil
}

func dateParams(c *gin.Context, names ...string) ([]int, Error) {
	values := make([]int, len(names))
	for i, name := range names {
		v, err := intParam(c, name)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func enumerated(key string, values []string, err error) (*Response, Error) {
	if err != nil {
		return nil, wrapSystemErrorf(err, http.StatusInternalServerError, "Failed to get %s", key)
	}
	return &Response{Code: http.StatusOK, Message: gin.H{key: values}}, nil
}

func (x *enumerateHandler) getYears(c *gin.Context) (*Response, Error) {
	years, err := x.enum.GetYears(c.Request.Context())
	return enumerated("years", years, err)
}

func (x *enumerateHandler) getMonths(c *gin.Context) (*Response, Error) {
	p, apiErr := dateParams(c, "year")
	if apiErr != nil {
		return nil, apiErr
	}

	months, err := x.enum.GetMonths(c.Request.Context(), p[0])
	return enumerated("months", months, err)
}

func (x *enumerateHandler) getDays(c *gin.Context) (*Response, Error) {
	p, apiErr := dateParams(c, "year", "month")
	if apiErr != nil {
		return nil, apiErr
	}

	days, err := x.enum.GetDays(c.Request.Context(), p[0], p[1])
	return enumerated("days", days, err)
}

func (x *enumerateHandler) getObjects(c *gin.Context) (*Response, Error) {
	p, apiErr := dateParams(c, "year", "month", "day")
	if apiErr != nil {
		return nil, apiErr
	}

	objects, err := x.enum.GetObjects(c.Request.Context(), p[0], p[1], p[2])
	return enumerated("objects", objects, err)
}

type uploadHandler struct {
	s3     *service.S3Service
	bucket models.Bucket
	codec  models.PathCodec
}

// UploadURLRequest is body of POST /bucket/upload-url. DateTime is ISO 8601
// string or epoch milliseconds.
type UploadURLRequest struct {
	DateTime  json.RawMessage `json:"date_time"`
	Extension string          `json:"extension"`
}

func parseDateTime(raw json.RawMessage) (models.Timestamp, Error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, newUserErrorf(http.StatusBadRequest, "date_time is required")
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return nil, wrapUserError(err, http.StatusBadRequest, "Invalid date_time")
		}
		return models.ParseTimestamp(str), nil
	}

	ms, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, wrapUserError(err, http.StatusBadRequest, "date_time must be ISO 8601 string or epoch milliseconds")
	}
	return models.Millis(ms), nil
}

func (x *uploadHandler) createUploadURL(c *gin.Context) (*Response, Error) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, wrapUserError(err, http.StatusBadRequest, "Can not parse request body")
	}

	ts, apiErr := parseDateTime(req.DateTime)
	if apiErr != nil {
		return nil, apiErr
	}

	upload, err := x.s3.PresignUpload(x.bucket, x.codec, ts, req.Extension)
	if err != nil {
		if isCodecError(err) {
			return nil, wrapUserError(err, http.StatusBadRequest, "Invalid date_time or extension")
		}
		return nil, wrapSystemErrorf(err, http.StatusInternalServerError, "Failed to create upload URL")
	}

	return &Response{Code: http.StatusOK, Message: upload}, nil
}

func isCodecError(err error) bool {
	return errors.Is(err, models.ErrInvalidTimestamp) || errors.Is(err, models.ErrInvalidExtension)
}
