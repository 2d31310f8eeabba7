package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/service"
)

// SessionResponse is the JSON form of an open detail session.
type SessionResponse struct {
	ID     uuid.UUID     `json:"id"`
	State  string        `json:"state"`
	Recipe domain.Recipe `json:"recipe"`
}

type createSessionRequest struct {
	RecipeID *uuid.UUID `json:"recipe_id"`
}

type updateSessionRequest struct {
	Title        *string `json:"title"`
	Instructions *string `json:"instructions"`
}

type ingredientRequest struct {
	Text string `json:"text"`
}

// CreateSession handles POST /sessions.
// With a recipe_id the loaded recipe is opened for reading; without one a
// new draft is started.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sess *service.Session
	if req.RecipeID == nil {
		sess = s.catalog.BeginCreate()
	} else {
		var err error
		if sess, err = s.catalog.Open(*req.RecipeID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	sid := uuid.New()
	s.sessions[sid] = sess
	s.log.DebugContext(r.Context(), "session opened", "session_id", sid, "state", sess.State().String())
	writeJSON(w, http.StatusCreated, sessionResponse(sid, sess))
}

// GetSession handles GET /sessions/{sid}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(context.Context, *service.Session) error { return nil })
}

// UpdateSession handles PATCH /sessions/{sid}.
// Title and instructions are applied together with a single save.
func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Title == nil && req.Instructions == nil {
		s.writeError(w, r, fmt.Errorf("%w: title or instructions is required", domain.ErrValidation))
		return
	}

	s.withSession(w, r, func(ctx context.Context, sess *service.Session) error {
		return sess.Update(ctx, req.Title, req.Instructions)
	})
}

// ToggleEdit handles POST /sessions/{sid}/edit.
func (s *Server) ToggleEdit(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(_ context.Context, sess *service.Session) error {
		return sess.ToggleEdit()
	})
}

// AddIngredient handles POST /sessions/{sid}/ingredients.
func (s *Server) AddIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(ctx context.Context, sess *service.Session) error {
		return sess.AddIngredient(ctx, req.Text)
	})
}

// RemoveIngredient handles DELETE /sessions/{sid}/ingredients/{index}.
func (s *Server) RemoveIngredient(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(ctx context.Context, sess *service.Session) error {
		return sess.RemoveIngredient(ctx, index)
	})
}

// ToggleSessionFavorite handles POST /sessions/{sid}/favorite.
func (s *Server) ToggleSessionFavorite(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, sess *service.Session) error {
		return sess.ToggleFavorite(ctx)
	})
}

// CommitSession handles POST /sessions/{sid}/commit.
func (s *Server) CommitSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, sess *service.Session) error {
		return sess.Commit(ctx)
	})
}

// CancelSession handles POST /sessions/{sid}/cancel.
func (s *Server) CancelSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(_ context.Context, sess *service.Session) error {
		return sess.Cancel()
	})
}

// CloseSession handles DELETE /sessions/{sid}.
// The session is forgotten; an uncommitted draft is simply dropped.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	sid, err := uuidParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sid]; !ok {
		s.writeError(w, r, fmt.Errorf("session %s: %w", sid, domain.ErrNotFound))
		return
	}
	delete(s.sessions, sid)
	w.WriteHeader(http.StatusNoContent)
}

// withSession resolves {sid}, runs op under the server lock and writes the
// resulting session. A session that op moved to a terminal state is dropped
// from the registry after this response.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, op func(context.Context, *service.Session) error) {
	sid, err := uuidParam(r, "sid")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sid]
	if !ok {
		s.writeError(w, r, fmt.Errorf("session %s: %w", sid, domain.ErrNotFound))
		return
	}
	if err := op(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	if st := sess.State(); st == service.StateCommitted || st == service.StateDiscarded {
		delete(s.sessions, sid)
		s.log.DebugContext(r.Context(), "session finished", "session_id", sid, "state", st.String())
	}
	writeJSON(w, http.StatusOK, sessionResponse(sid, sess))
}

func sessionResponse(sid uuid.UUID, sess *service.Session) SessionResponse {
	return SessionResponse{ID: sid, State: sess.State().String(), Recipe: sess.Recipe()}
}
