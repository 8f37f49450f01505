package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/claude/liftlog/internal/events"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
)

// sessionView is what the UI polls. Freshness tells it whether the snapshot
// can be trusted outright or is a local guess awaiting confirmation.
type sessionView struct {
	Session   models.ActiveSessionSnapshot `json:"session"`
	Freshness string                       `json:"freshness"`
	State     string                       `json:"state"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, fresh := s.ctrl.ReadSnapshot(r.Context())
	writeJSON(w, http.StatusOK, sessionView{
		Session:   snap,
		Freshness: fresh.String(),
		State:     string(s.ctrl.State()),
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var tpl models.WorkoutTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid template body")
		return
	}
	draft, err := s.ctrl.Start(r.Context(), tpl)
	if err != nil {
		if errors.Is(err, session.ErrStartRejected) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error("starting session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

type recordSetRequest struct {
	ExerciseID uuid.UUID         `json:"exercise_id"`
	SetNumber  int               `json:"set_number"`
	Update     session.SetUpdate `json:"update"`
}

func (s *Server) handleRecordSet(w http.ResponseWriter, r *http.Request) {
	var req recordSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid set body")
		return
	}
	if req.ExerciseID == uuid.Nil || req.SetNumber < 1 {
		writeError(w, http.StatusBadRequest, "exercise_id and set_number are required")
		return
	}
	if err := s.ctrl.RecordSet(req.ExerciseID, req.SetNumber, req.Update); err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error("recording set", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record set")
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.CurrentDraft())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Cancel(r.Context()); err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Error("cancelling session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type completeRequest struct {
	Ratings session.Ratings `json:"ratings"`
	Notes   string          `json:"notes"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid completion body")
		return
	}
	summary, err := s.ctrl.Complete(r.Context(), req.Ratings, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoActiveSession), errors.Is(err, session.ErrCompletionInFlight):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, session.ErrSubmissionFailed):
			// The draft is retained; the client may retry.
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			s.log.Error("completing session", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to complete session")
		}
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleRefresh nudges the cache the way a window regaining focus does:
// it never blocks on the network, it just queues a refresh if one is due.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.cache.Poke(r.Context())
	snap, fresh := s.ctrl.ReadSnapshot(r.Context())
	writeJSON(w, http.StatusOK, sessionView{
		Session:   snap,
		Freshness: fresh.String(),
		State:     string(s.ctrl.State()),
	})
}

type cancelConfirmedRequest struct {
	SessionID string `json:"session_id"`
}

// handleCancelConfirmed lets the platform (or a webhook relay) report that a
// cancellation has been processed server-side, ending the suppression window
// early.
func (s *Server) handleCancelConfirmed(w http.ResponseWriter, r *http.Request) {
	var req cancelConfirmedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid confirmation body")
		return
	}
	s.bus.Publish(events.NewCancelConfirmed(req.SessionID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
