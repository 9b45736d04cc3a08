// Package httpx holds the HTTP plumbing shared by the browser session and
// the technician agent: graceful serving, request logging and JSON replies.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"photoaudit/internal/logging"
)

// Run serves h on addr until ctx is done, then shuts down gracefully within
// shutdown. A nil ready is ignored; otherwise it receives the bound address.
func Run(ctx context.Context, addr string, h http.Handler, shutdown time.Duration, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h, shutdown, ready)
}

// Serve is Run over an existing listener.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, shutdown time.Duration, ready func(net.Addr)) error {
	server := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	if shutdown <= 0 {
		shutdown = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		server.Close()
		return err
	}
	<-errChan
	return nil
}

// Logger records every request as an http_request event in category cat.
func Logger(cat logging.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logging.Get(cat).Debug("%s %s -> %d", r.Method, r.URL.Path, status)
			logging.LogEvent(logging.Event{
				Type:      logging.EventHTTPRequest,
				RequestID: middleware.GetReqID(r.Context()),
				Target:    r.Method + " " + r.URL.Path,
				Success:   status < 500,
				Duration:  time.Since(start),
				Fields:    map[string]interface{}{"status": status, "bytes": ww.BytesWritten()},
			})
		})
	}
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message}.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
