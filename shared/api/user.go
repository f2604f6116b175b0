package api

import "github.com/poradna-dev/poradna/shared/domain"

type SetRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=user admin"`
}

type UserListResponse struct {
	Users []domain.User `json:"users"`
}

// UpdateProfileRequest edits the signed-in user's own profile. Omitted
// fields stay unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitnil,max=100"`
	LastName  *string `json:"lastName" validate:"omitnil,max=100"`
	Email     *string `json:"email" validate:"omitnil,email,max=254"`
}
