package rest

import "net/http"

func (h *handlers) listReplies(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	list, err := h.replies.ListByPost(r.Context(), postID)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) writeReply(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	reply, err := h.replies.Write(r.Context(), username(r), postID, req.Content)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, reply)
}

func (h *handlers) editReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "replyId")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	var req contentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	reply, err := h.replies.Edit(r.Context(), username(r), id, req.Content)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (h *handlers) deleteReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "replyId")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	if err := h.replies.Delete(r.Context(), username(r), id); err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) voteReply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "replyId")
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	voted, err := h.replies.Vote(r.Context(), username(r), id)
	if err != nil {
		writeError(r.Context(), w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{Voted: voted})
}
