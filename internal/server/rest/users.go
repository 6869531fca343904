package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/oakboard/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type profileResponse struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	ProfileImg string `json:"profileImg"`
}

func (h *handlers) signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	user, err := h.users.Signup(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), username(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		ProfileImg: user.ProfileImg,
	})
}

func (h *handlers) myPosts(w http.ResponseWriter, r *http.Request) {
	list, err := h.posts.MyPosts(r.Context(), username(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) myReplies(w http.ResponseWriter, r *http.Request) {
	list, err := h.replies.MyReplies(r.Context(), username(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) myLikes(w http.ResponseWriter, r *http.Request) {
	list, err := h.posts.LikedPosts(r.Context(), username(r))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// updateProfile takes a multipart form with an optional "file" and an
// "isImageDeleted" flag.
func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	defer form.close()

	remove, _ := strconv.ParseBool(r.FormValue("isImageDeleted"))

	path, err := h.users.UpdateProfileImage(r.Context(), username(r), form.upload, remove)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"profileImg": path})
}

func (h *handlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req services.PasswordUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	if err := h.users.UpdatePassword(r.Context(), username(r), req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteMe(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	if err := h.users.Delete(r.Context(), username(r), req.Password); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
