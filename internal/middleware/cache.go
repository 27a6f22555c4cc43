package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

type cachedResponse struct {
	status int
	body   []byte
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache serves repeated GETs of the same path from a short-TTL
// in-memory cache. Entries are keyed per user, so one user's list never
// leaks to another.
func ResponseCache(ttl time.Duration) gin.HandlerFunc {
	store := cache.New(ttl, 2*ttl)

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		id, ok := UserID(c)
		if !ok {
			// Unauthenticated requests never share a cache entry.
			c.Next()
			return
		}
		key := id.String() + "|" + c.Request.URL.RequestURI()

		if v, found := store.Get(key); found {
			resp := v.(cachedResponse)
			c.Data(resp.status, "application/json", resp.body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = rec
		c.Next()

		if c.Writer.Status() == http.StatusOK {
			store.Set(key, cachedResponse{status: c.Writer.Status(), body: rec.buf.Bytes()}, cache.DefaultExpiration)
		}
	}
}
