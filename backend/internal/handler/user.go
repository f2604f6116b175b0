package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/poradna-dev/poradna/shared/api"
	"github.com/poradna-dev/poradna/shared/domain"
	mw "github.com/poradna-dev/poradna/shared/middleware"
	"github.com/poradna-dev/poradna/shared/utils"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.user.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.UserListResponse{Users: users})
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var body api.SetRoleRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.user.SetRole(r.Context(), mw.GetUserFromContext(r), chi.URLParam(r, "user"), body.Role); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.user.Delete(r.Context(), mw.GetUserFromContext(r), chi.URLParam(r, "user")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.user.Profile(r.Context(), mw.GetUserFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	user, err := h.user.UpdateProfile(r.Context(), mw.GetUserFromContext(r), domain.ProfileUpdateData{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, user)
}
