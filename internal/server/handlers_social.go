package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
)

// profileResponse is a profile with its headline statistics.
type profileResponse struct {
	models.Profile
	Stats stats.ProfileStats `json:"stats"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProfile(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeProfile(w, r, p)
}

func (s *Server) writeProfile(w http.ResponseWriter, r *http.Request, p models.Profile) {
	ps, err := s.stats.ProfileStats(r.Context(), p.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{Profile: p, Stats: ps})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		Bio         string `json:"bio"`
		IsPublic    bool   `json:"is_public"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if models.CleanUsername(req.Username) == "" {
		s.writeError(w, r, badRequest("username must contain letters, digits or underscores"))
		return
	}
	if other, err := s.store.GetProfileByUsername(r.Context(), req.Username); err == nil && other.UserID != uid {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "username taken"})
		return
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, r, err)
		return
	}
	p, err := s.store.UpsertProfile(r.Context(), models.Profile{
		UserID:      uid,
		Username:    req.Username,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         strings.TrimSpace(req.Bio),
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSearchProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if models.CleanUsername(q) == "" {
		writeJSON(w, http.StatusOK, []models.Profile{})
		return
	}
	profiles, err := s.store.SearchProfiles(r.Context(), q, queryInt(r, "limit", 20))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// handleGetPublicProfile shows another user's profile. Private profiles are visible
// only to their owner and accepted friends.
func (s *Server) handleGetPublicProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProfileByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !p.IsPublic && p.UserID != uid {
		friends, err := s.friendIDs(r, uid)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if !friends[p.UserID] {
			s.writeError(w, r, storage.ErrNotFound)
			return
		}
	}
	s.writeProfile(w, r, p)
}

func (s *Server) friendIDs(r *http.Request, uid int) (map[int]bool, error) {
	fs, err := s.store.ListFriendships(r.Context(), uid)
	if err != nil {
		return nil, err
	}
	out := map[int]bool{}
	for _, f := range fs {
		if f.Status != models.FriendshipAccepted {
			continue
		}
		out[f.UserID] = true
		out[f.FriendID] = true
	}
	delete(out, uid)
	return out, nil
}

func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	fs, err := s.store.ListFriendships(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (s *Server) handleSendFriendRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := s.store.GetProfileByUsername(r.Context(), req.Username)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if target.UserID == uid {
		s.writeError(w, r, badRequest("cannot befriend yourself"))
		return
	}
	f, err := s.store.SendFriendRequest(r.Context(), uid, target.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f.Friend = &target
	s.invalidate(uid)
	s.invalidate(target.UserID)
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleAcceptFriend(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		err = s.store.AcceptFriendRequest(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err == nil {
		// the friend is still in the circle here
		s.invalidate(uid)
		err = s.store.RemoveFriendship(r.Context(), uid, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	board, err := s.stats.Leaderboard(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	feed, err := s.stats.Feed(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleShareRoutine(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsPublic    *bool  `json:"is_public"`
	}{}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	public := req.IsPublic == nil || *req.IsPublic
	sr, err := s.store.ShareRoutine(r.Context(), uid, id, req.Title, req.Description, public)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sr)
}

func (s *Server) handleListShared(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	shared, err := s.store.ListSharedRoutines(r.Context(), uid, queryInt(r, "limit", 50))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shared)
}

func (s *Server) handleImportShared(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	routine, err := s.store.ImportSharedRoutine(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusCreated, routine)
}

func (s *Server) handleLikeShared(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	liked, err := s.store.ToggleLike(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}
