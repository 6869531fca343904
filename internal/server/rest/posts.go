package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/oakboard/internal/server/services"
)

type contentRequest struct {
	Content string `json:"content"`
}

type voteResponse struct {
	Voted bool `json:"voted"`
}

// listPosts serves GET /api/posts?page=0&kw=. A bad page number means page 0.
func (h *handlers) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil {
		page = 0
	}

	res, err := h.posts.List(r.Context(), page, q.Get("kw"))
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *handlers) createPost(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	defer form.close()

	post, err := h.posts.Create(r.Context(), username(r), services.PostInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		File:    form.upload,
	})
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *handlers) modifyPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	form, err := readForm(w, r)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}
	defer form.close()

	remove, _ := strconv.ParseBool(r.FormValue("isImageDeleted"))

	post, err := h.posts.Modify(r.Context(), username(r), id, services.PostInput{
		Title:      r.FormValue("title"),
		Content:    r.FormValue("content"),
		File:       form.upload,
		RemoveFile: remove,
	})
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *handlers) deletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	if err := h.posts.Delete(r.Context(), username(r), id); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) votePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	voted, err := h.posts.Vote(r.Context(), username(r), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{Voted: voted})
}
