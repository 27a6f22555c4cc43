package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func doRequest(t *testing.T, method string, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/items", nil)
	handler.ServeHTTP(w, req)
	return w
}

func TestResponseCacheServesRepeatGets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hits := 0
	userID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserID, userID)
		c.Next()
	})
	r.Use(ResponseCache(time.Minute))
	r.GET("/items", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	first := doRequest(t, http.MethodGet, r)
	second := doRequest(t, http.MethodGet, r)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, hits)
}

func TestResponseCacheKeysPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hits := 0
	current := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserID, current)
		c.Next()
	})
	r.Use(ResponseCache(time.Minute))
	r.GET("/items", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	doRequest(t, http.MethodGet, r)
	// Another user must not be served the first user's entry.
	current = uuid.New()
	doRequest(t, http.MethodGet, r)

	assert.Equal(t, 2, hits)
}

func TestResponseCacheSkipsWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hits := 0
	userID := uuid.New()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserID, userID)
		c.Next()
	})
	r.Use(ResponseCache(time.Minute))
	r.POST("/items", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	doRequest(t, http.MethodPost, r)
	doRequest(t, http.MethodPost, r)

	assert.Equal(t, 2, hits)
}

func TestResponseCacheSkipsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hits := 0

	r := gin.New()
	r.Use(ResponseCache(time.Minute))
	r.GET("/items", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	doRequest(t, http.MethodGet, r)
	doRequest(t, http.MethodGet, r)

	assert.Equal(t, 2, hits)
}
