package handler

import (
	"net/http"

	"github.com/poradna-dev/poradna/shared/api"
	"github.com/poradna-dev/poradna/shared/domain"
	mw "github.com/poradna-dev/poradna/shared/middleware"
	"github.com/poradna-dev/poradna/shared/utils"
)

func (h *Handler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	questionId, err := parseIdParam(r, "question")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, pendingFiles, cleanup, err := parseMultipartRequest[api.AnswerRequest](w, r, h)
	defer cleanup()
	if err != nil {
		writeParseError(w, err)
		return
	}

	answer, err := h.answer.Create(r.Context(), domain.AnswerCreationData{
		QuestionId:   questionId,
		Text:         body.Text,
		Author:       *user,
		PendingFiles: pendingFiles,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, answer)
}

// UpdateAnswer replaces the text. Files sent with the edit replace the
// whole attachment list.
func (h *Handler) UpdateAnswer(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	questionId, err := parseIdParam(r, "question")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	answerId, err := parseIdParam(r, "answer")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, pendingFiles, cleanup, err := parseMultipartRequest[api.AnswerRequest](w, r, h)
	defer cleanup()
	if err != nil {
		writeParseError(w, err)
		return
	}

	answer, err := h.answer.Update(r.Context(), domain.AnswerUpdateData{
		QuestionId:   questionId,
		Id:           answerId,
		Text:         body.Text,
		Editor:       *user,
		PendingFiles: pendingFiles,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, answer)
}

func (h *Handler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	questionId, err := parseIdParam(r, "question")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	answerId, err := parseIdParam(r, "answer")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.answer.Delete(r.Context(), questionId, answerId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
