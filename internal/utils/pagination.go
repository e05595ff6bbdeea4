package utils

import (
	"github.com/yukikurage/project-tracker-api/internal/constants"
)

// PaginationParams holds the pagination parameters
type PaginationParams struct {
	Page   int64
	Limit  int
	Offset int
}

// NewPaginationParams computes the window for a page. Pages are 1-based;
// page 0 and negative pages start at the beginning.
func NewPaginationParams(page int64) PaginationParams {
	if page < 1 {
		page = 1
	}

	return PaginationParams{
		Page:   page,
		Limit:  constants.PageSize,
		Offset: int(page-1) * constants.PageSize,
	}
}
