// Package web serves the browser session: upload a photo, preview it next to
// its metadata, run the audit and read the report.
package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"photoaudit/internal/audit"
	"photoaudit/internal/exif"
	"photoaudit/internal/httpx"
	"photoaudit/internal/logging"
	"photoaudit/internal/photo"
	"photoaudit/internal/render"
)

//go:embed templates/*.html
var templates embed.FS

// Options configures a Server.
type Options struct {
	MaxBytes    int64
	JPEGQuality int
	Sessions    int
	SessionTTL  time.Duration
}

// Server is the browser session handler.
type Server struct {
	auditor  *audit.Auditor
	opts     Options
	sessions *store
	html     *render.HTMLRenderer
	page     *template.Template
	router   chi.Router
}

type metaLine struct {
	Key   string
	Value string
}

type pageData struct {
	Accept      string
	Session     *Session
	Metadata    []metaLine
	Report      template.HTML
	AuditError  string
	UploadError string
}

// New builds the session server around a.
func New(a *audit.Auditor, opts Options) *Server {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = photo.DefaultMaxBytes
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Hour
	}
	s := &Server{
		auditor:  a,
		opts:     opts,
		sessions: newStore(opts.Sessions, opts.SessionTTL),
		html:     render.NewHTML(),
		page:     template.Must(template.ParseFS(templates, "templates/page.html")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.Logger(logging.CategoryWeb))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/s/{id}", func(r chi.Router) {
		r.Get("/", s.handleSession)
		r.Get("/image", s.handleImage)
		r.Post("/audit", s.handleAudit)
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, pageData{})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBytes+1<<20)
	file, hdr, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.renderPage(w, http.StatusRequestEntityTooLarge, pageData{UploadError: photo.ErrTooLarge.Error()})
			return
		}
		s.renderPage(w, http.StatusBadRequest, pageData{UploadError: "no image uploaded"})
		return
	}
	defer file.Close()

	raw, err := photo.Read(file, hdr.Filename, s.opts.MaxBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, photo.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		} else if errors.Is(err, photo.ErrUnsupportedMediaType) {
			status = http.StatusUnsupportedMediaType
		}
		s.renderPage(w, status, pageData{UploadError: err.Error()})
		return
	}

	img, err := photo.Normalize(raw, s.opts.JPEGQuality)
	if err != nil {
		s.renderPage(w, http.StatusUnprocessableEntity, pageData{UploadError: err.Error()})
		return
	}
	md := s.auditor.Extractor().ExtractBytes(raw.Data)
	sess := s.sessions.put(raw, img, md)
	logging.Get(logging.CategoryWeb).Info("session %s: %s (%d bytes, %s)", sess.ID, raw.Name, raw.Size(), raw.MediaType)

	http.Redirect(w, r, "/s/"+sess.ID+"/", http.StatusSeeOther)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
	}
	return sess, ok
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.renderSession(w, sess)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", sess.Image.MediaType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(sess.Image.Data)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res := s.auditor.Run(r.Context(), sess.Image, sess.Metadata)
	sess.setResult(res)
	s.renderSession(w, sess)
}

func (s *Server) renderSession(w http.ResponseWriter, sess *Session) {
	data := pageData{Session: sess}
	for _, k := range sess.Metadata.Keys() {
		data.Metadata = append(data.Metadata, metaLine{Key: k, Value: exif.FormatValue(sess.Metadata[k])})
	}
	if res := sess.Result(); res != nil {
		if res.OK {
			html, err := s.html.Render(res.Report)
			if err != nil {
				data.AuditError = err.Error()
			} else {
				data.Report = html
			}
		} else {
			data.AuditError = res.Reason
		}
	}
	s.renderPage(w, http.StatusOK, data)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.Accept = strings.Join(photo.Extensions(), ",")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		logging.Get(logging.CategoryWeb).Error("render page: %v", err)
	}
}
