// Package api exposes the remote control surface and operational status over
// HTTP. It implements control.Registry: every configuration operation bound
// through it becomes one named endpoint under /api/rpc/.
package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/depthview/internal/control"
	"github.com/banshee-data/depthview/internal/device"
	"github.com/banshee-data/depthview/internal/httputil"
	"github.com/banshee-data/depthview/internal/router"
	"github.com/banshee-data/depthview/internal/session"
	"github.com/banshee-data/depthview/internal/version"
)

// ANSI escape codes for request logging
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server serves the RPC surface, status endpoints and debug pages.
type Server struct {
	mux  *http.ServeMux
	sess *session.Controller
	rtr  *router.Router
	hist *HistogramSink
}

// NewServer builds the route table. hist may be nil when the histogram debug
// page is not wanted.
func NewServer(sess *session.Controller, rtr *router.Router, hist *HistogramSink) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		sess: sess,
		rtr:  rtr,
		hist: hist,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/api/status", s.handleStatus)

	debug := tsweb.Debugger(s.mux)
	debug.HandleFunc("charts/intensity", "intensity histogram of the latest frame", s.handleIntensityChart)

	return s
}

// ServeFunction implements control.Registry: the operation becomes
// /api/rpc/<name>. Setters are invoked via POST with a JSON argument array
// as the body; getters accept GET.
func (s *Server) ServeFunction(name string, fn control.Func) {
	s.mux.HandleFunc("/api/rpc/"+name, func(w http.ResponseWriter, r *http.Request) {
		var args []byte
		switch r.Method {
		case http.MethodGet:
		case http.MethodPost:
			body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
			if err != nil {
				httputil.BadRequest(w, "failed to read request body")
				return
			}
			args = body
		default:
			httputil.MethodNotAllowed(w)
			return
		}

		result, err := fn(args)
		if err != nil {
			writeOperationError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{"result": result})
	})
}

// writeOperationError maps the device error taxonomy onto HTTP status codes
// without altering the message the model produced.
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrInvalidParameter):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, device.ErrDeviceUnavailable):
		httputil.ServiceUnavailable(w, err.Error())
	default:
		httputil.InternalServerError(w, err.Error())
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	io.WriteString(w, "ok\n")
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Version string       `json:"version"`
	State   string       `json:"state"`
	Model   *ModelStatus `json:"model,omitempty"`
	Router  router.Stats `json:"router"`
}

// ModelStatus describes the currently published camera model.
type ModelStatus struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := StatusResponse{
		Version: version.Short(),
		State:   s.sess.State().String(),
		Router:  s.rtr.Stats(),
	}
	if m := s.sess.Model(); m != nil {
		resp.Model = &ModelStatus{Width: m.Width, Height: m.Height}
	}
	httputil.WriteJSONOK(w, resp)
}

// Handler returns the full route table wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("%s %s %s %s", statusCodeColor(lrw.statusCode), r.Method, r.URL.Path, time.Since(start))
	})
}
