package dto

import (
	"time"

	"github.com/Pipe0105/visor-realtime/internal/model"
)

// CreateBranchRequest registers a branch.
type CreateBranchRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	Code string `json:"code" validate:"required,alphanum,min=2,max=10"`
}

// BranchResponse is one branch in API responses.
type BranchResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

func ToBranchResponse(b *model.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID.String(),
		Name:      b.Name,
		Code:      b.Code,
		CreatedAt: b.CreatedAt,
	}
}
