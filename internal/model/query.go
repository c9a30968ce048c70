package model

import "github.com/GoPolymarket/vaultscope/internal/pkg/apperrors"

const DefaultPageSize = 30

type Pagination struct {
	Offset int `json:"offset" form:"offset"`
	Limit  int `json:"limit" form:"limit"`
}

// QueryParam describes one page request.
type QueryParam struct {
	Pagination Pagination `json:"pagination"`
}

var DefaultQueryParam = QueryParam{Pagination: Pagination{Offset: 0, Limit: DefaultPageSize}}

func ToQueryParam(offset, limit int) QueryParam {
	return QueryParam{Pagination: Pagination{Offset: offset, Limit: limit}}
}

func (q QueryParam) Validate() error {
	if q.Pagination.Offset < 0 {
		return apperrors.NewInvalidArgument("pagination offset must be >= 0, got %d", q.Pagination.Offset)
	}
	if q.Pagination.Limit <= 0 {
		return apperrors.NewInvalidArgument("pagination limit must be > 0, got %d", q.Pagination.Limit)
	}
	return nil
}

// Window returns the [start, end) slice bounds of this page over total items.
// A page starting at or past total yields an empty window. Limits beyond
// the remaining items clamp to total without overflowing.
func (q QueryParam) Window(total int) (int, int) {
	start := q.Pagination.Offset
	if start >= total {
		return total, total
	}
	end := total
	if q.Pagination.Limit < total-start {
		end = start + q.Pagination.Limit
	}
	return start, end
}
