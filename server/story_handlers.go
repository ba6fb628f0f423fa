package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	apperrors "github.com/storytail/storytail-server/internal/errors"
	"github.com/storytail/storytail-server/stories"
)

type storyResponse struct {
	Success bool           `json:"success"`
	Story   *stories.Story `json:"story"`
}

type storyListResponse struct {
	Success bool             `json:"success"`
	Stories []*stories.Story `json:"stories"`
}

// GenerateStoryHandler creates a new story for the signed-in account.
func (s *Server) GenerateStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var req stories.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}

	story, err := s.stories.Generate(r.Context(), session.AccountID, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, storyResponse{Success: true, Story: story})
}

func (s *Server) ListStoriesHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	list, err := s.stories.List(r.Context(), session.AccountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storyListResponse{Success: true, Stories: list})
}

func (s *Server) GetStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	story, err := s.stories.Get(r.Context(), session.AccountID, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storyResponse{Success: true, Story: story})
}

// UpdateStoryHandler currently supports toggling the favorite flag.
func (s *Server) UpdateStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())

	var req struct {
		Favorite bool `json:"favorite"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, apperrors.ErrValidation)
		return
	}

	story, err := s.stories.SetFavorite(r.Context(), session.AccountID, mux.Vars(r)["id"], req.Favorite)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storyResponse{Success: true, Story: story})
}

func (s *Server) DeleteStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if err := s.stories.Delete(r.Context(), session.AccountID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Story deleted."})
}

func (s *Server) ExtendStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	story, err := s.stories.Extend(r.Context(), session.AccountID, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storyResponse{Success: true, Story: story})
}

func (s *Server) IllustrateStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	story, err := s.stories.Illustrate(r.Context(), session.AccountID, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storyResponse{Success: true, Story: story})
}

// NarrateStoryHandler generates the text-to-speech narration for a story.
func (s *Server) NarrateStoryHandler(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	story, err := s.stories.Narrate(r.Context(), session.AccountID, mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, storyResponse{Success: true, Story: story})
}
