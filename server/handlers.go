package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sjsage522/partsworker/internal/export"
	"sjsage522/partsworker/services/jobs"
	"sjsage522/partsworker/services/worker"
)

// ScrapeRequest is the body of POST /scrape
type ScrapeRequest struct {
	LicensePlate string `json:"license_plate"`
	PartName     string `json:"part_name"`
}

// ScrapeResponse acknowledges a submitted job
type ScrapeResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	StatusURL  string `json:"status_url"`
	ResultsURL string `json:"results_url"`
}

// Summary describes the outcome of a completed job
type Summary struct {
	TotalParts int      `json:"total_parts"`
	Categories []string `json:"categories"`
	ModelType  string   `json:"modeltype"`
	Complete   bool     `json:"complete"`
}

// StatusResponse is the body of GET /status/{id}
type StatusResponse struct {
	JobID        string   `json:"job_id"`
	Status       string   `json:"status"`
	LicensePlate string   `json:"license_plate"`
	PartName     string   `json:"part_name"`
	StartedAt    string   `json:"started_at"`
	FinishedAt   string   `json:"finished_at,omitempty"`
	Summary      *Summary `json:"summary,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.LicensePlate) == "" || strings.TrimSpace(req.PartName) == "" {
		writeError(w, http.StatusBadRequest, "license_plate and part_name are required")
		return
	}

	job, err := s.jobs.Submit(worker.Search{Plate: req.LicensePlate, Part: req.PartName})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, ScrapeResponse{
		JobID:      job.ID,
		Status:     string(jobs.StateStarted),
		Message:    fmt.Sprintf("Scraping %s for %s started", job.Search.Part, job.Search.Plate),
		StatusURL:  "/status/" + job.ID,
		ResultsURL: "/results/" + job.ID,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := StatusResponse{
		JobID:        job.ID,
		Status:       string(job.State),
		LicensePlate: job.Search.Plate,
		PartName:     job.Search.Part,
		StartedAt:    job.CreatedAt.Format(time.RFC3339),
	}
	if !job.FinishedAt.IsZero() {
		resp.FinishedAt = job.FinishedAt.Format(time.RFC3339)
	}

	switch job.State {
	case jobs.StateCompleted:
		doc := job.Result.Document()
		resp.Summary = &Summary{
			TotalParts: doc.Total(),
			Categories: doc.CategoryNames(),
			ModelType:  job.Result.Vehicle.ModelType,
			Complete:   job.Result.Complete,
		}
	case jobs.StateFailed:
		resp.Error = job.Err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	if job.State != jobs.StateCompleted {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "job not completed",
			"status": string(job.State),
		})
		return
	}

	doc := job.Result.Document()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if !strings.Contains(r.Header.Get("Accept"), "application/json") {
		name := export.AttachmentName(job.Result.Search.Plate, job.Search.Part)
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	w.WriteHeader(http.StatusOK)

	if err := doc.Write(w); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("Failed to write results")
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
