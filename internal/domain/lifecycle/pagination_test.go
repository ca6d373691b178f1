package lifecycle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/core/apperror"
)

func TestPagePolicy_Normalize(t *testing.T) {
	p := DefaultPagePolicy()

	tests := []struct {
		name       string
		page, size int
		want       PageRequest
	}{
		{"defaults", 0, 0, PageRequest{Page: 1, Size: 10, Offset: 0, Limit: 10}},
		{"negative", -3, -1, PageRequest{Page: 1, Size: 10, Offset: 0, Limit: 10}},
		{"third page", 3, 20, PageRequest{Page: 3, Size: 20, Offset: 40, Limit: 20}},
		{"clamped size", 2, 500, PageRequest{Page: 2, Size: 100, Offset: 100, Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Normalize(tt.page, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPagePolicy_NormalizeOverflow(t *testing.T) {
	_, err := DefaultPagePolicy().Normalize(math.MaxInt32, 100)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "page", appErr.Details["field"])
}

func TestPagePolicy_ZeroValueUsesDefaults(t *testing.T) {
	got, err := PagePolicy{}.Normalize(1, 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, got.Size)
}

func TestPagePolicy_BuildMeta(t *testing.T) {
	p := DefaultPagePolicy()

	assert.Equal(t, PageMeta{Current: 1, PageSize: 10, Pages: 3, Total: 23}, p.BuildMeta(1, 10, 23))
	assert.Equal(t, PageMeta{Current: 4, PageSize: 10, Pages: 0, Total: 0}, p.BuildMeta(4, 10, 0))
	assert.Equal(t, 1, p.BuildMeta(1, 10, 10).Pages)
	assert.Equal(t, 2, p.BuildMeta(1, 10, 11).Pages)
}
