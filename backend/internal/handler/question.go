package handler

import (
	"net/http"
	"strconv"

	"github.com/poradna-dev/poradna/shared/api"
	"github.com/poradna-dev/poradna/shared/domain"
	mw "github.com/poradna-dev/poradna/shared/middleware"
	"github.com/poradna-dev/poradna/shared/utils"
)

func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, pendingFiles, cleanup, err := parseMultipartRequest[api.CreateQuestionRequest](w, r, h)
	defer cleanup()
	if err != nil {
		writeParseError(w, err)
		return
	}

	question, err := h.question.Create(r.Context(), domain.QuestionCreationData{
		Title:        body.Title,
		Text:         body.Text,
		Categories:   body.Categories,
		Author:       *user,
		PendingFiles: pendingFiles,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.QuestionResponse{Question: *question})
}

func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "question")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := h.question.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.QuestionResponse{Question: *question})
}

// ListQuestions serves the archive. Unparsable page numbers fall back to 1.
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.ArchiveFilter{Page: 1, Query: query.Get("q")}
	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if c := query.Get("category"); c != "" {
		category, err := strconv.ParseInt(c, 10, 64)
		if err != nil || category <= 0 {
			http.Error(w, "invalid category: must be a positive integer", http.StatusBadRequest)
			return
		}
		filter.Category = &category
	}

	page, err := h.question.Archive(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.ArchiveResponse{ArchivePage: *page, PageSize: h.cfg.Public.QuestionsPerPage})
}

func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	id, err := parseIdParam(r, "question")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateQuestionRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	question, err := h.question.Update(r.Context(), domain.QuestionUpdateData{
		Id:         id,
		Title:      body.Title,
		Text:       body.Text,
		Categories: body.Categories,
		Editor:     *user,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.QuestionResponse{Question: *question})
}

func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIdParam(r, "question")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.question.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
