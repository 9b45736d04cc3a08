// Package agent exposes the hardware technician: a narrow JSON service that
// audits images by local path or upload using the hardware rubric.
package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"photoaudit/internal/audit"
	"photoaudit/internal/httpx"
	"photoaudit/internal/logging"
	"photoaudit/internal/photo"
)

// Task statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Card describes the agent to callers.
type Card struct {
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	URL                string   `json:"url"`
	Version            string   `json:"version"`
	DefaultInputModes  []string `json:"defaultInputModes"`
	DefaultOutputModes []string `json:"defaultOutputModes"`
	Skills             []Skill  `json:"skills"`
}

// Skill is one capability listed on the card.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// TaskRequest is the JSON body of POST /v1/tasks.
type TaskRequest struct {
	Path string `json:"path"`
}

// TaskResponse is the reply to POST /v1/tasks.
type TaskResponse struct {
	ID       string                 `json:"id"`
	Status   string                 `json:"status"`
	Report   string                 `json:"report,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Options configures an Agent.
type Options struct {
	Name        string
	Description string
	Version     string
	URL         string
	// Root, when set, confines path requests to files beneath it.
	Root          string
	MaxBytes      int64
	MaxConcurrent int64
}

// Agent is the technician HTTP handler.
type Agent struct {
	auditor *audit.Auditor
	opts    Options
	sem     *semaphore.Weighted
	router  chi.Router
}

// New builds the agent around a, which should carry the hardware rubric.
func New(a *audit.Auditor, opts Options) *Agent {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = photo.DefaultMaxBytes
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	ag := &Agent{
		auditor: a,
		opts:    opts,
		sem:     semaphore.NewWeighted(opts.MaxConcurrent),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpx.Logger(logging.CategoryAgent))
	r.Use(middleware.Recoverer)
	r.Get("/.well-known/agent.json", ag.handleCard)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/tasks", ag.handleTask)
	ag.router = r
	return ag
}

// ServeHTTP implements http.Handler.
func (ag *Agent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ag.router.ServeHTTP(w, r)
}

// Card returns the agent card.
func (ag *Agent) Card() Card {
	return Card{
		Name:               ag.opts.Name,
		Description:        ag.opts.Description,
		URL:                ag.opts.URL,
		Version:            ag.opts.Version,
		DefaultInputModes:  []string{"application/json", "multipart/form-data"},
		DefaultOutputModes: []string{"text/markdown"},
		Skills: []Skill{{
			ID:          "hardware_audit",
			Name:        "Hardware health audit",
			Description: "Analyzes metadata and pixels for sensor dust, chromatic aberration and sharpness.",
			Tags:        []string{"photography", "exif", "hardware"},
		}},
	}
}

func (ag *Agent) handleCard(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, ag.Card())
}

func (ag *Agent) handleTask(w http.ResponseWriter, r *http.Request) {
	raw, status, err := ag.readImage(w, r)
	if err != nil {
		httpx.WriteError(w, status, err.Error())
		return
	}

	if err := ag.sem.Acquire(r.Context(), 1); err != nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	defer ag.sem.Release(1)

	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.NewString()
	}
	rep := ag.auditor.Audit(r.Context(), raw)

	resp := TaskResponse{ID: id, Metadata: rep.Metadata}
	if rep.Result.OK {
		resp.Status = StatusCompleted
		resp.Report = rep.Result.Report
	} else {
		resp.Status = StatusFailed
		resp.Error = rep.Result.Reason
	}
	logging.Get(logging.CategoryAgent).Info("task %s on %s: %s", id, raw.Name, resp.Status)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// readImage accepts either a JSON path reference or a multipart upload.
func (ag *Agent) readImage(w http.ResponseWriter, r *http.Request) (*photo.RawImage, int, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		r.Body = http.MaxBytesReader(w, r.Body, ag.opts.MaxBytes+1<<20)
		file, hdr, err := r.FormFile("image")
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("missing image field: %w", err)
		}
		defer file.Close()
		raw, err := photo.Read(file, hdr.Filename, ag.opts.MaxBytes)
		return raw, statusFor(err), err
	}

	var req TaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)
	}
	if req.Path == "" {
		return nil, http.StatusBadRequest, errors.New("path is required")
	}
	p, err := ag.resolve(req.Path)
	if err != nil {
		return nil, http.StatusForbidden, err
	}
	raw, err := photo.Load(p, ag.opts.MaxBytes)
	return raw, statusFor(err), err
}

// resolve confines p to Root after following symlinks on both sides.
// A target that does not exist yet is checked as written and fails later
// at load time.
func (ag *Agent) resolve(p string) (string, error) {
	clean := filepath.Clean(p)
	if ag.opts.Root == "" {
		return clean, nil
	}
	root, err := filepath.Abs(ag.opts.Root)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if !filepath.IsAbs(clean) {
		clean = filepath.Join(root, clean)
	}
	target := clean
	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		target = resolved
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", p, root)
	}
	return target, nil
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, photo.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, photo.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, photo.ErrEmpty):
		return http.StatusBadRequest
	}
	return http.StatusNotFound
}
