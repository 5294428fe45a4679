// Package server exposes the recording flow and the mood log over a
// JSON HTTP API. Sessions are tracked with a cookie; every flow endpoint
// operates on the caller's own draft.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/seorin-dev/moodlog/internal/color"
	"github.com/seorin-dev/moodlog/internal/flow"
	"github.com/seorin-dev/moodlog/internal/models"
	"github.com/seorin-dev/moodlog/internal/session"
	"github.com/seorin-dev/moodlog/internal/store"
	"github.com/seorin-dev/moodlog/internal/upload"
)

const maxUploadBytes = 10 << 20

// Server is the HTTP front of the mood journal.
type Server struct {
	mux       *http.ServeMux
	flow      *flow.Flow
	store     *store.Store
	uploadDir string
	defaultN  int
	maxN      int
}

// Options configures a Server.
type Options struct {
	Flow      *flow.Flow
	Store     *store.Store
	UploadDir string
	// History defaults; DefaultN is used when ?n= is absent and MaxN
	// caps any requested window.
	DefaultN int
	MaxN     int
}

func New(opts Options) *Server {
	s := &Server{
		mux:       http.NewServeMux(),
		flow:      opts.Flow,
		store:     opts.Store,
		uploadDir: opts.UploadDir,
		defaultN:  opts.DefaultN,
		maxN:      opts.MaxN,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/flow", http.StatusFound)
	})

	s.mux.HandleFunc("GET /flow", s.handleFlowStatus)
	s.mux.HandleFunc("POST /flow/color", s.handleColor)
	s.mux.HandleFunc("POST /flow/text", s.handleText)
	s.mux.HandleFunc("POST /flow/mode", s.handleMode)
	s.mux.HandleFunc("POST /flow/expression", s.handleExpression)
	s.mux.HandleFunc("POST /flow/ai-choice", s.handleAIChoice)
	s.mux.HandleFunc("POST /flow/ai-continue", s.handleAIContinue)
	s.mux.HandleFunc("POST /flow/next", s.handleNext)
	s.mux.HandleFunc("POST /flow/color-confirm", s.handleColorConfirm)
	s.mux.HandleFunc("POST /flow/save", s.handleSave)

	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /calendar", s.handleCalendar)
	s.mux.HandleFunc("DELETE /records/{key}", s.handleDelete)
	s.mux.HandleFunc("GET /ratelimit", s.handleRateLimit)
	s.mux.HandleFunc("GET /palette", s.handlePalette)

	s.mux.Handle("GET /uploads/",
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	s.mux.ServeHTTP(w, r)
	log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
}

func (s *Server) handleFlowStatus(w http.ResponseWriter, r *http.Request) {
	id := session.ID(w, r)
	writeJSON(w, http.StatusOK, s.flow.Status(id))
}

type colorParams struct {
	Color string `json:"color"`
}

func (s *Server) handleColor(w http.ResponseWriter, r *http.Request) {
	var p colorParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.StartColor(id, p.Color)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type textParams struct {
	Text string `json:"text"`
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var p textParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.SetText(id, p.Text)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type modeParams struct {
	Mode models.Mode `json:"mode"`
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var p modeParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.SetMode(id, p.Mode)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type expressionParams struct {
	Text       string `json:"text"`
	Note       string `json:"note"`
	Background string `json:"background"`
	Keywords   string `json:"keywords"`
}

// handleExpression accepts JSON for write and music entries, and
// multipart form data when a drawing image rides along.
func (s *Server) handleExpression(w http.ResponseWriter, r *http.Request) {
	id := session.ID(w, r)

	var in flow.ExpressionInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		in.Text = r.FormValue("text")
		in.Note = r.FormValue("note")
		in.Background = r.FormValue("background")
		in.Keywords = r.FormValue("keywords")

		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			name, err := upload.SaveFile(file, header, s.uploadDir)
			if err != nil {
				log.Printf("saving upload: %v", err)
				writeJSONError(w, http.StatusInternalServerError, "failed to store image")
				return
			}
			if name == "" {
				writeJSONError(w, http.StatusBadRequest, "unsupported image type")
				return
			}
			in.ImageFilename = name
		case errors.Is(err, http.ErrMissingFile):
			// Drawings without an image are fine.
		default:
			writeJSONError(w, http.StatusBadRequest, "invalid image upload")
			return
		}
	} else {
		var p expressionParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		in = flow.ExpressionInput{
			Text:       p.Text,
			Note:       p.Note,
			Background: p.Background,
			Keywords:   p.Keywords,
		}
	}

	v, err := s.flow.SubmitExpression(r.Context(), id, in)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type aiChoiceParams struct {
	Choice  models.AIChoice `json:"choice"`
	Content string          `json:"content"`
}

func (s *Server) handleAIChoice(w http.ResponseWriter, r *http.Request) {
	var p aiChoiceParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.ChooseAI(r.Context(), id, p.Choice, p.Content)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type aiContinueParams struct {
	Content string `json:"content"`
}

func (s *Server) handleAIContinue(w http.ResponseWriter, r *http.Request) {
	var p aiContinueParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.ContinueAI(r.Context(), id, p.Content)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type nextParams struct {
	Action models.NextAction `json:"action"`
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	var p nextParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.Next(r.Context(), id, p.Action)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type colorConfirmParams struct {
	Intensity *float64 `json:"intensity"`
}

func (s *Server) handleColorConfirm(w http.ResponseWriter, r *http.Request) {
	var p colorConfirmParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := session.ID(w, r)
	v, err := s.flow.ConfirmColor(id, p.Intensity)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := session.ID(w, r)
	res, err := s.flow.Save(r.Context(), id)
	if err != nil {
		s.writeFlowError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleHistory returns the most recent records (?n=, clamped), or all
// records of one day when ?date=YYYY-MM-DD is given.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			writeJSONError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		recs, err := s.store.ReadByDate(date)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to read log")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"date": date, "records": recs})
		return
	}

	// Malformed n falls back to the default instead of erroring.
	n := s.defaultN
	if raw := r.URL.Query().Get("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}
	if n < 1 {
		n = 1
	}
	if n > s.maxN {
		n = s.maxN
	}

	recs, err := s.store.ReadLastN(n)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"n": n, "records": recs})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	// Malformed year/month fall back to the current month.
	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			year = parsed
		}
	}
	if raw := q.Get("month"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			month = parsed
		}
	}

	days, err := s.store.CalendarAggregate(year, month)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":  year,
		"month": month,
		"days":  days,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	deleted, err := s.store.DeleteByKey(key)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to rewrite log")
		return
	}
	if !deleted {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("no record at %s", key))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": key})
}

func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	status, err := s.flow.RateLimit()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to read log")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type paletteEntry struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Hex   string `json:"hex"`
}

func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	entries := make([]paletteEntry, 0)
	for _, name := range color.Names() {
		entries = append(entries, paletteEntry{
			Name:  name,
			Label: color.Label(name),
			Hex:   color.BaseHex(name),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"colors": entries})
}

// writeFlowError maps flow errors onto HTTP statuses. Guard and quota
// violations carry the session's current view so clients can resync.
func (s *Server) writeFlowError(w http.ResponseWriter, id string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, flow.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, flow.ErrGuardNotMet), errors.Is(err, flow.ErrQuotaExceeded):
		status = http.StatusConflict
	case errors.Is(err, flow.ErrRateLimited):
		status = http.StatusTooManyRequests
	}
	if status == http.StatusInternalServerError {
		log.Printf("flow error: %v", err)
	}

	writeJSON(w, status, map[string]any{
		"error": err.Error(),
		"flow":  s.flow.Status(id),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
