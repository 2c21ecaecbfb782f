package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abagames/algo-chip-sub000/internal/composer"
	apperrors "github.com/abagames/algo-chip-sub000/internal/errors"
)

const maxRequestSize = 1 << 20 // 1MB

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleCompose runs one composition synchronously and returns the full
// result.
func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var opts composer.Options
	if !s.decodeOptions(w, r, &opts) {
		return
	}

	result, err := s.composer.Compose(opts)
	if err != nil {
		s.writeComposeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// styleInfo describes one preset for the styles listing.
type styleInfo struct {
	Name    string   `json:"name"`
	Moods   []string `json:"moods"`
	Tempos  []string `json:"tempos"`
	Lengths []int    `json:"lengthsInMeasures"`
}

// handleStyles lists the supported presets and option vocabularies
func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	styles := make([]styleInfo, 0, len(composer.StylePresets()))
	for _, name := range composer.StylePresets() {
		styles = append(styles, styleInfo{
			Name:    name,
			Moods:   composer.Moods(),
			Tempos:  composer.Tempos(),
			Lengths: []int{16, 32, 64},
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"styles": styles})
}

// handleCreateJob queues an asynchronous composition and returns its id.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var opts composer.Options
	if !s.decodeOptions(w, r, &opts) {
		return
	}
	if err := opts.Validate(); err != nil {
		s.writeComposeError(w, err)
		return
	}

	job := s.jobs.Create(opts)
	go s.jobs.Process(job)

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     job.ID,
		"status": string(job.Status()),
	})
}

// handleGetJob returns a job's status, and its result once complete.
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}

	resp := map[string]any{
		"id":     job.ID,
		"status": string(job.Status()),
	}
	switch job.Status() {
	case StatusComplete:
		resp["result"] = job.Result()
	case StatusFailed:
		resp["error"] = job.Err()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// decodeOptions parses the request body into composition options,
// answering 400 on malformed JSON.
func (s *Server) decodeOptions(w http.ResponseWriter, r *http.Request, opts *composer.Options) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(opts); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeComposeError maps composition errors to HTTP statuses: bad options
// are the client's fault, library defects are ours.
func (s *Server) writeComposeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrUnknownMood),
		errors.Is(err, apperrors.ErrUnknownTempo),
		errors.Is(err, apperrors.ErrInvalidOptions):
		status = http.StatusBadRequest
	}
	s.logger.Error("compose failed", slog.Any("error", err))
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}
