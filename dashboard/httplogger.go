package dashboard

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// HTTPLogger can be used to log http requests
type HTTPLogger struct {
	*log.Logger
}

// NewHTTPLogger returns a http logger writing to w.
func NewHTTPLogger(prefix string, w io.Writer) *HTTPLogger {
	return &HTTPLogger{Logger: log.New(w, prefix, 0)}
}

// Handler wraps an HTTP handler and logs the request once served.
func (l *HTTPLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		crw := newCustomResponseWriter(w)
		next.ServeHTTP(crw, r)
		l.Printf("(%s) \"%s %s\" %d %dB %v", r.RemoteAddr, r.Method, r.RequestURI,
			crw.status, crw.size, time.Since(start).Round(time.Millisecond))
	})
}

type customResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (c *customResponseWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *customResponseWriter) Write(b []byte) (int, error) {
	size, err := c.ResponseWriter.Write(b)
	c.size += size
	return size, err
}

func (c *customResponseWriter) Flush() {
	if f, ok := c.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// CloseNotify is required by the event stream handlers.
func (c *customResponseWriter) CloseNotify() <-chan bool {
	if cn, ok := c.ResponseWriter.(http.CloseNotifier); ok {
		return cn.CloseNotify()
	}
	return make(chan bool)
}

func (c *customResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := c.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("ResponseWriter does not implement the Hijacker interface")
}

func newCustomResponseWriter(w http.ResponseWriter) *customResponseWriter {
	// When WriteHeader is not called, it's safe to assume the status will be 200.
	return &customResponseWriter{
		ResponseWriter: w,
		status:         200,
	}
}
