package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/metadata"
	"lyricfinder/internal/pipeline"
)

// TrackRequest is the body of POST /api/track. Every field is optional.
type TrackRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Album  string `json:"album"`
	Path   string `json:"path"`
}

// CandidateRequest is the body of POST /api/reject and /api/choose.
type CandidateRequest struct {
	URI string `json:"uri"`
}

type CandidateResponse struct {
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Artist string  `json:"artist,omitempty"`
	URI    string  `json:"uri"`
	Score  float64 `json:"score"`
	Exact  bool    `json:"exact"`
	Tier   string  `json:"tier"`
}

type StateResponse struct {
	CycleID    string              `json:"cycle_id,omitempty"`
	Generation uint64              `json:"generation"`
	State      pipeline.State      `json:"state"`
	Artist     string              `json:"artist,omitempty"`
	Title      string              `json:"title,omitempty"`
	Album      string              `json:"album,omitempty"`
	Path       string              `json:"path,omitempty"`
	Candidate  *CandidateResponse  `json:"candidate,omitempty"`
	Candidates []CandidateResponse `json:"candidates,omitempty"`
	Failed     []string            `json:"failed,omitempty"`
	Lyrics     string              `json:"lyrics,omitempty"`
	Synced     bool                `json:"synced,omitempty"`
	Error      string              `json:"error,omitempty"`
	Stale      bool                `json:"stale,omitempty"`
	UpdatedAt  string              `json:"updated_at,omitempty"`
}

func (r TrackRequest) event() pipeline.Event {
	ev := pipeline.Event{Path: r.Path}
	if r.Artist != "" || r.Title != "" || r.Album != "" {
		ev.Tags = &metadata.RawTags{Artist: r.Artist, Title: r.Title, Album: r.Album}
	}
	return ev
}

// handleTrack starts a lookup. With ?wait=1 it responds with the final
// outcome, otherwise it returns 202 at once.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ev := req.event()
	s.logger.Info("Track changed: %q - %q (%s)", req.Artist, req.Title, req.Path)

	if wait := r.URL.Query().Get("wait"); wait == "1" || wait == "true" {
		out := s.engine.TrackChanged(s.run.Context(), ev)
		writeJSON(w, http.StatusOK, s.outcomeToResponse(out))
		return
	}

	s.run.Go(func(ctx context.Context) {
		s.engine.TrackChanged(ctx, ev)
	})
	writeJSON(w, http.StatusAccepted, map[string]string{"status": string(pipeline.StateSearching)})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.outcomeToResponse(s.engine.Last()))
}

func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cycles := s.cycles.List()
	responses := make([]*StateResponse, len(cycles))
	for i, c := range cycles {
		responses[i] = s.cycleToResponse(c)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/cycles/"), "/")
	if id == "" {
		http.Error(w, "Cycle ID required", http.StatusBadRequest)
		return
	}
	c, ok := s.cycles.Get(id)
	if !ok {
		http.Error(w, "cycle not found: "+id, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.cycleToResponse(c))
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCandidateRequest(w, r)
	if !ok {
		return
	}

	out, err := s.engine.Reject(req.URI)
	if err != nil {
		s.logger.Error("Failed to reject %s: %v", req.URI, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.outcomeToResponse(out))
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCandidateRequest(w, r)
	if !ok {
		return
	}

	out, err := s.engine.Choose(r.Context(), req.URI)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.outcomeToResponse(out))
}

func decodeCandidateRequest(w http.ResponseWriter, r *http.Request) (CandidateRequest, bool) {
	var req CandidateRequest
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return req, false
	}
	if strings.TrimSpace(req.URI) == "" {
		http.Error(w, "URI is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) outcomeToResponse(out pipeline.Outcome) *StateResponse {
	resp := &StateResponse{
		Generation: out.Generation,
		State:      out.State,
		Artist:     out.Track.Artist,
		Title:      out.Track.Title,
		Album:      out.Track.Album,
		Path:       out.Track.Path,
		Failed:     out.Failed,
		Stale:      out.Stale,
	}
	if c, ok := s.cycles.ByGeneration(out.Generation); ok {
		resp.CycleID = c.ID
		resp.UpdatedAt = c.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	if out.Candidate.URI != "" {
		c := candidateToResponse(out.Candidate)
		resp.Candidate = &c
	}
	for _, c := range out.Ranked {
		resp.Candidates = append(resp.Candidates, candidateToResponse(c))
	}
	if out.State == pipeline.StateFound {
		resp.Lyrics = string(out.Payload)
		resp.Synced = out.Lyrics != nil && out.Lyrics.Synced
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

func (s *Server) cycleToResponse(c Cycle) *StateResponse {
	resp := s.outcomeToResponse(c.Outcome)
	resp.CycleID = c.ID
	resp.UpdatedAt = c.UpdatedAt.Format("2006-01-02 15:04:05")
	return resp
}

func candidateToResponse(c lyrics.Candidate) CandidateResponse {
	return CandidateResponse{
		Source: c.Source,
		Title:  c.Title,
		Artist: c.Artist,
		URI:    c.URI,
		Score:  c.Score,
		Exact:  c.Exact,
		Tier:   c.Tier().String(),
	}
}
