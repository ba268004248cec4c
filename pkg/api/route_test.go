package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exogenesis/timevault/internal/mock"
	"github.com/exogenesis/timevault/internal/service"
	"github.com/exogenesis/timevault/pkg/api"
	"github.com/exogenesis/timevault/pkg/models"
)

func newEngine(t *testing.T, repo *mock.LookupRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	args := api.Arguments{
		Index:        service.NewIndexEnumerator(repo),
		S3:           service.NewS3Service(mock.NewS3Client),
		UploadBucket: models.Bucket{Region: "ap-northeast-1", Name: "my-vault"},
	}

	engine := gin.New()
	api.SetupRoute(engine.Group("/api/v1"), args)
	return engine
}

func ingest(t *testing.T, repo *mock.LookupRepository, keys ...string) {
	var items []*models.CollectionItem
	for _, key := range keys {
		item, err := models.NewCollectionItem(key, "my-vault")
		require.NoError(t, err)
		items = append(items, item)
	}

	svc := service.NewLookupService(repo, mock.NewCollectionRepository(), nil)
	_, err := svc.IngestBatch(context.Background(), items)
	require.NoError(t, err)
}

func doRequest(engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestEnumerateRoutes(t *testing.T) {
	repo := mock.NewLookupRepository()
	ingest(t, repo,
		"1984/04/04/1984-4-4-12-34-50.MOV",
		"1984/04/04/1984-4-4-12-34-51.MOV",
		"1985/04/04/1985-4-4-12-34-50.MOV",
	)
	engine := newEngine(t, repo)

	t.Run("Years", func(tt *testing.T) {
		w, resp := doRequest(engine, "GET", "/api/v1/db/years", nil)
		assert.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, []interface{}{"1984", "1985"}, resp["years"])
	})

	t.Run("Months", func(tt *testing.T) {
		w, resp := doRequest(engine, "GET", "/api/v1/db/years/1984/months", nil)
		assert.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, []interface{}{"4"}, resp["months"])
	})

	t.Run("Days", func(tt *testing.T) {
		w, resp := doRequest(engine, "GET", "/api/v1/db/years/1984/months/04/days", nil)
		assert.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, []interface{}{"4"}, resp["days"])
	})

	t.Run("Objects", func(tt *testing.T) {
		w, resp := doRequest(engine, "GET", "/api/v1/db/years/1984/months/4/days/4/objects", nil)
		assert.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, []interface{}{
			"1984/04/04/1984-4-4-12-34-50.MOV",
			"1984/04/04/1984-4-4-12-34-51.MOV",
		}, resp["objects"])
	})

	t.Run("No data is empty list", func(tt *testing.T) {
		w, resp := doRequest(engine, "GET", "/api/v1/db/years/2000/months", nil)
		assert.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, []interface{}{}, resp["months"])
	})

	t.Run("Non integer parameter", func(tt *testing.T) {
		w, resp := doRequest(engine, "GET", "/api/v1/db/years/hoge/months", nil)
		assert.Equal(tt, http.StatusBadRequest, w.Code)
		assert.Contains(tt, resp["message"], "year")
	})

	t.Run("Out of range parameter", func(tt *testing.T) {
		w, _ := doRequest(engine, "GET", "/api/v1/db/years/1984/months/13/days", nil)
		assert.Equal(tt, http.StatusBadRequest, w.Code)
	})

	t.Run("Bucket routes are disabled", func(tt *testing.T) {
		w, _ := doRequest(engine, "GET", "/api/v1/bucket/years", nil)
		assert.Equal(tt, http.StatusNotFound, w.Code)
	})
}

func TestEnumerateRoutesStorageError(t *testing.T) {
	repo := mock.NewLookupRepository()
	repo.GetError = errors.New("timeout")
	engine := newEngine(t, repo)

	w, resp := doRequest(engine, "GET", "/api/v1/db/years", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, resp["message"], "timeout")
}

func TestUploadURLRoute(t *testing.T) {
	engine := newEngine(t, mock.NewLookupRepository())

	t.Run("ISO string", func(tt *testing.T) {
		w, resp := doRequest(engine, "POST", "/api/v1/bucket/upload-url", map[string]interface{}{
			"date_time": "1984-04-04T12:42:42Z",
			"extension": "MOV",
		})
		require.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, "1984/4/4/1984-4-4-12-42-42.MOV", resp["key"])
		assert.Contains(tt, resp["url"], "my-vault")
	})

	t.Run("Epoch millis", func(tt *testing.T) {
		w, resp := doRequest(engine, "POST", "/api/v1/bucket/upload-url", map[string]interface{}{
			"date_time": 449930090000,
			"extension": ".mov",
		})
		require.Equal(tt, http.StatusOK, w.Code)
		assert.Equal(tt, "1984/4/4/1984-4-4-12-34-50.mov", resp["key"])
	})

	t.Run("Invalid date time", func(tt *testing.T) {
		w, _ := doRequest(engine, "POST", "/api/v1/bucket/upload-url", map[string]interface{}{
			"date_time": "yesterday",
			"extension": "mov",
		})
		assert.Equal(tt, http.StatusBadRequest, w.Code)
	})

	t.Run("Empty extension", func(tt *testing.T) {
		w, _ := doRequest(engine, "POST", "/api/v1/bucket/upload-url", map[string]interface{}{
			"date_time": 0,
			"extension": ".",
		})
		assert.Equal(tt, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing date time", func(tt *testing.T) {
		w, _ := doRequest(engine, "POST", "/api/v1/bucket/upload-url", map[string]interface{}{
			"extension": "mov",
		})
		assert.Equal(tt, http.StatusBadRequest, w.Code)
	})

	t.Run("Broken body", func(tt *testing.T) {
		w, _ := doRequest(engine, "POST", "/api/v1/bucket/upload-url", "{")
		assert.Equal(tt, http.StatusBadRequest, w.Code)
	})
}
