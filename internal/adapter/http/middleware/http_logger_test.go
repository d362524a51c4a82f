package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mecber11/farmacia/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactJSON(t *testing.T) {
	in := []byte(`{"telefono":"123","password":"secreto","nested":{"Token":"abc"},"list":[{"client_secret":"x"}]}`)
	out := string(redactJSON(in))

	assert.NotContains(t, out, "secreto")
	assert.NotContains(t, out, `"abc"`)
	assert.NotContains(t, out, `"x"`)
	assert.Contains(t, out, `"telefono":"123"`)

	assert.Equal(t, "not json", string(redactJSON([]byte("not json"))))
}

func TestLogging_KeepsBodyAndLogsRedacted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(Logging(zap.New(core)))
	var seen string
	r.POST("/login", func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		require.NoError(t, err)
		seen = string(b)
		logging.From(c).Info("inside handler")
		c.JSON(http.StatusOK, gin.H{"token": "tok-1", "ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"telefono":"1","password":"secreto"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, `{"telefono":"1","password":"secreto"}`, seen)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-Id"))

	require.Equal(t, 2, logs.Len())
	inside := logs.All()[0]
	assert.Equal(t, "inside handler", inside.Message)
	assert.Equal(t, "req-42", inside.ContextMap()["req_id"])

	access := logs.All()[1].ContextMap()
	assert.EqualValues(t, 200, access["status"])
	assert.NotContains(t, access["req_body"], "secreto")
	assert.NotContains(t, access["resp_body"], "tok-1")
}

func TestLogging_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logging(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get("X-Request-Id"), 36)
}
