package lifecycle

import (
	"math"

	"recyclebin/internal/core/apperror"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PagePolicy normalizes page/size request parameters.
type PagePolicy struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPagePolicy returns size 10, capped at 100.
func DefaultPagePolicy() PagePolicy {
	return PagePolicy{DefaultSize: DefaultPageSize, MaxSize: MaxPageSize}
}

// PageRequest is a normalized page request.
type PageRequest struct {
	Page   int
	Size   int
	Offset int
	Limit  int
}

// PageMeta describes a page within a result set.
type PageMeta struct {
	Current  int   `json:"current"`
	PageSize int   `json:"pageSize"`
	Pages    int   `json:"pages"`
	Total    int64 `json:"total"`
}

func (p PagePolicy) defaults() PagePolicy {
	if p.DefaultSize <= 0 {
		p.DefaultSize = DefaultPageSize
	}
	if p.MaxSize <= 0 {
		p.MaxSize = MaxPageSize
	}
	if p.DefaultSize > p.MaxSize {
		p.DefaultSize = p.MaxSize
	}
	return p
}

// Normalize applies defaults to non-positive values and clamps size.
// A page so large that its offset overflows is a validation error.
func (p PagePolicy) Normalize(page, size int) (PageRequest, error) {
	p = p.defaults()

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = p.DefaultSize
	}
	if size > p.MaxSize {
		size = p.MaxSize
	}

	if page-1 > (math.MaxInt32-size)/size {
		return PageRequest{}, apperror.NewFieldValidation("page", "page is out of range").
			WithDetail("page", page)
	}

	return PageRequest{
		Page:   page,
		Size:   size,
		Offset: (page - 1) * size,
		Limit:  size,
	}, nil
}

// BuildMeta computes pages = ceil(total/size); zero when total is zero.
func (p PagePolicy) BuildMeta(current, size int, total int64) PageMeta {
	pages := 0
	if total > 0 && size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return PageMeta{
		Current:  current,
		PageSize: size,
		Pages:    pages,
		Total:    total,
	}
}
