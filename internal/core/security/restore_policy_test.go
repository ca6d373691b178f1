package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
)

func TestOpenRestorePolicy(t *testing.T) {
	err := OpenRestorePolicy{}.CanRestore(context.Background(), nil, &entity.Actor{ID: "someone"})
	assert.NoError(t, err)
}

func TestCELRestorePolicy(t *testing.T) {
	policy, err := NewCELRestorePolicy(`principal.role == "admin" || principal.id == deletedBy.id`)
	require.NoError(t, err)

	ctx := context.Background()
	deleter := &entity.Actor{ID: "u1", Email: "u1@example.com"}

	tests := []struct {
		name      string
		principal *Principal
		deletedBy *entity.Actor
		allowed   bool
	}{
		{"admin restores anything", &Principal{ID: "u2", Role: "admin"}, deleter, true},
		{"owner restores own", &Principal{ID: "u1", Role: "editor"}, deleter, true},
		{"other editor denied", &Principal{ID: "u3", Role: "editor"}, deleter, false},
		{"unattributed deletion denied for editor", &Principal{ID: "u3", Role: "editor"}, nil, false},
		{"nil principal denied", nil, deleter, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.CanRestore(ctx, tt.principal, tt.deletedBy)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.IsForbidden(err), "got %v", err)
		})
	}
}

func TestNewCELRestorePolicy_Rejects(t *testing.T) {
	_, err := NewCELRestorePolicy(`principal.id +`)
	assert.Error(t, err)

	_, err = NewCELRestorePolicy(`principal.id`)
	assert.Error(t, err)

	_, err = NewCELRestorePolicy(`unknown.var == "x"`)
	assert.Error(t, err)
}

func TestCELRestorePolicy_String(t *testing.T) {
	policy, err := NewCELRestorePolicy(`true`)
	require.NoError(t, err)
	assert.Equal(t, "true", policy.String())
}
