package middleware

import (
	"io"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
)

// Gzip compresses responses for clients that accept it. Paths in skip are
// passed through untouched.
func Gzip(level int, skip ...string) gin.HandlerFunc {
	pool := sync.Pool{
		New: func() any {
			w, err := gzip.NewWriterLevel(io.Discard, level)
			if err != nil {
				w = gzip.NewWriter(io.Discard)
			}
			return w
		},
	}

	return func(c *gin.Context) {
		if !acceptsGzip(c) || skipped(c.Request.URL.Path, skip) {
			c.Next()
			return
		}

		gz := pool.Get().(*gzip.Writer)
		original := c.Writer
		gz.Reset(original)
		w := &gzipWriter{ResponseWriter: original, gz: gz}
		c.Writer = w

		defer func() {
			if !w.started {
				gz.Reset(io.Discard)
			}
			_ = gz.Close()
			c.Writer = original
			pool.Put(gz)
		}()

		c.Next()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	gz      *gzip.Writer
	started bool
}

func (w *gzipWriter) start() {
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	w.started = true
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	if !w.started {
		w.start()
	}
	return w.gz.Write(data)
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) Flush() {
	if w.started {
		_ = w.gz.Flush()
	}
	w.ResponseWriter.Flush()
}

func acceptsGzip(c *gin.Context) bool {
	if c.Request.Method == "HEAD" || c.GetHeader("Connection") == "Upgrade" {
		return false
	}
	return strings.Contains(c.GetHeader("Accept-Encoding"), "gzip")
}

func skipped(path string, skip []string) bool {
	for _, p := range skip {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
