package api

import "github.com/poradna-dev/poradna/shared/domain"

type CategoryRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

type CategoryListResponse struct {
	Categories []domain.Category `json:"categories"`
}
