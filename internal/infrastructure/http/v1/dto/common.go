// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strconv"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/id"
)

// --- Pagination ---

// PageQuery holds the raw page query parameters. Zero means "not supplied";
// clamping to the configured policy happens in the lifecycle service.
type PageQuery struct {
	Page     int
	PageSize int
}

// ParsePageQuery parses page and pageSize. A value that is present but not an
// integer is a validation error naming the offending field.
func ParsePageQuery(page, pageSize string) (PageQuery, error) {
	var q PageQuery
	var err error
	if q.Page, err = parseIntParam("page", page); err != nil {
		return PageQuery{}, err
	}
	if q.PageSize, err = parseIntParam("pageSize", pageSize); err != nil {
		return PageQuery{}, err
	}
	return q, nil
}

func parseIntParam(field, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewFieldValidation(field, field+" must be an integer").
			WithDetail("value", raw)
	}
	return v, nil
}

// --- Identifiers ---

// ParseID parses a path id. Malformed ids never reach storage.
func ParseID(raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewFieldValidation("id", "id must be 24 hexadecimal characters").
			WithDetail("value", raw)
	}
	return v, nil
}

// --- Common responses ---

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
