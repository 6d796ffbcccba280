package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stocktake/internal"
	"stocktake/internal/engine"
	"stocktake/internal/store"
)

const maxUploadBytes = 16 << 20

type resolveRequest struct {
	Term string `json:"term" validate:"required"`
	By   string `json:"by" validate:"omitempty,oneof=barcode name"`
}

type countRequest struct {
	CountedQuantity *int `json:"countedQuantity" validate:"required,gte=0"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, content, err := readUpload(r)
	if err != nil {
		respond(w, http.StatusBadRequest, errBody(err))
		return
	}

	rows, err := store.ParseUpload(filename, content)
	if err != nil {
		respond(w, http.StatusBadRequest, errBody(err))
		return
	}

	required := []string{store.ColBarcode}
	if s.cfg.RemoteEnabled() {
		required = append(required, store.ColExternalID)
	}

	if err := s.store.Replace(rows, required); err != nil {
		var schemaErr *store.SchemaError
		if errors.As(err, &schemaErr) {
			respond(w, http.StatusBadRequest, map[string]any{
				"error":          schemaErr.Error(),
				"missingColumns": schemaErr.Missing,
			})
			return
		}
		respond(w, http.StatusInternalServerError, errBody(err))
		return
	}

	stats := s.store.Stats()
	s.log.WithField("rows", stats.Total).Info("inventory table replaced")
	respond(w, http.StatusCreated, stats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := fmt.Sprintf("inventory_%s.csv", time.Now().Format("20060102_1504"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := s.store.Export(w); err != nil {
		if errors.Is(err, store.ErrNotLoaded) {
			w.Header().Del("Content-Disposition")
			respond(w, http.StatusNotFound, errBody(err))
			return
		}
		s.log.WithError(err).Error("inventory export failed")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.store.Stats()
	progress := 0.0
	if stats.Total > 0 {
		progress = float64(stats.Counted) / float64(stats.Total)
	}
	respond(w, http.StatusOK, map[string]any{
		"total":    stats.Total,
		"counted":  stats.Counted,
		"progress": progress,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !s.decode(w, r, &req) {
		return
	}

	mode := engine.ByBarcode
	if req.By == "name" {
		mode = engine.ByName
	}

	resolved, err := s.engine.Lookup(r.Context(), req.Term, mode)
	if err != nil {
		var ambiguous *engine.AmbiguousError
		switch {
		case errors.As(err, &ambiguous):
			respond(w, http.StatusConflict, map[string]any{
				"error":      ambiguous.Error(),
				"candidates": ambiguous.Candidates,
			})
		case errors.Is(err, engine.ErrNotFound):
			respond(w, http.StatusNotFound, errBody(err))
		case errors.Is(err, engine.ErrRemoteUnavailable):
			respond(w, http.StatusBadGateway, errBody(err))
		default:
			respond(w, http.StatusInternalServerError, errBody(err))
		}
		return
	}

	s.sess.SetResolved(resolved)
	respond(w, http.StatusOK, resolved)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	var req countRequest
	if !s.decode(w, r, &req) {
		return
	}

	resolved := s.sess.Resolved()
	if resolved == nil {
		respond(w, http.StatusConflict, map[string]string{"error": "no product resolved in this session"})
		return
	}

	decision := s.engine.Decide(resolved, *req.CountedQuantity)
	s.sess.SetPending(&decision)
	respond(w, http.StatusOK, decision)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	resolved := s.sess.Resolved()
	pending := s.sess.Pending()
	if resolved == nil || pending == nil {
		respond(w, http.StatusConflict, map[string]string{"error": "no pending decision in this session"})
		return
	}

	if pending.Kind == internal.KindMatch {
		if err := s.engine.RecordNoOp(resolved, pending.CountedQuantity); err != nil {
			respond(w, http.StatusInternalServerError, errBody(err))
			return
		}
		s.sess.Finish()
		respond(w, http.StatusOK, map[string]any{
			"status":      "recorded",
			"newQuantity": pending.CountedQuantity,
		})
		return
	}

	result, err := s.engine.Confirm(r.Context(), resolved, *pending)
	if err != nil {
		// On a failed submission the session stays as-is so the operator
		// can confirm again.
		switch {
		case errors.Is(err, engine.ErrSubmissionFailed):
			respond(w, http.StatusBadGateway, errBody(err))
		case errors.Is(err, engine.ErrNoExternalID):
			// Nothing to reconcile against remotely; keep the count locally.
			if err := s.engine.RecordNoOp(resolved, pending.CountedQuantity); err != nil {
				respond(w, http.StatusInternalServerError, errBody(err))
				return
			}
			s.sess.Finish()
			respond(w, http.StatusOK, map[string]any{
				"status":      "recorded locally",
				"newQuantity": pending.CountedQuantity,
				"delta":       pending.Delta,
			})
		default:
			respond(w, http.StatusInternalServerError, errBody(err))
		}
		return
	}

	s.sess.Finish()
	respond(w, http.StatusOK, result)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.All()
	if err != nil {
		respond(w, http.StatusInternalServerError, errBody(err))
		return
	}
	if entries == nil {
		entries = []internal.JournalEntry{}
	}
	respond(w, http.StatusOK, entries)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"sessionId": s.sess.ID,
		"startedAt": s.sess.StartedAt,
		"events":    s.sess.Ledger.Snapshot(),
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	s.sess.Ledger.Clear()
	s.sess.Finish()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond(w, http.StatusBadRequest, errBody(err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		respond(w, http.StatusBadRequest, errBody(err))
		return false
	}
	return true
}

func readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return "", nil, err
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, err
		}
		defer file.Close()
		content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		return header.Filename, content, err
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "inventory.csv"
	}
	content, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	return filename, content, err
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
