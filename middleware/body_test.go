package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEngine(limit int64, handlerRan *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.POST("/", BodySizeLimiter(limit), func(c *gin.Context) {
		*handlerRan = true
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

func TestBodySizeLimiterRejectsOversized(t *testing.T) {
	var handlerRan bool
	r := newLimitedEngine(10, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 100)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// The rejection must be the whole story, no handler side effects
	assert.False(t, handlerRan)
	require.JSONEq(t, `{"error":"Request body size exceeds limit"}`, w.Body.String())
}

func TestBodySizeLimiterPassesSmallBodies(t *testing.T) {
	var handlerRan bool
	r := newLimitedEngine(1024, &handlerRan)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handlerRan)
}
