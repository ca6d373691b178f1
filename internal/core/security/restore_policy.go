package security

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"recyclebin/internal/core/apperror"
	"recyclebin/internal/core/entity"
)

// RestorePolicy decides whether a principal may restore a record that was
// trashed by deletedBy (nil for unattributed deletions).
type RestorePolicy interface {
	CanRestore(ctx context.Context, principal *Principal, deletedBy *entity.Actor) error
}

// OpenRestorePolicy allows every restore regardless of who deleted the record.
type OpenRestorePolicy struct{}

func (OpenRestorePolicy) CanRestore(context.Context, *Principal, *entity.Actor) error { return nil }

// CELRestorePolicy evaluates a boolean CEL expression. Two variables are bound:
//
//	principal: {"id", "email", "role"}
//	deletedBy: {"id", "email"}  (empty strings when unattributed)
//
// Example: principal.role == "admin" || principal.id == deletedBy.id
type CELRestorePolicy struct {
	expr    string
	program cel.Program
}

// NewCELRestorePolicy compiles expr once; the program is safe for concurrent use.
func NewCELRestorePolicy(expr string) (*CELRestorePolicy, error) {
	env, err := cel.NewEnv(
		cel.Variable("principal", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("deletedBy", cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile restore policy: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("restore policy must evaluate to bool, got %s", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build restore policy program: %w", err)
	}

	return &CELRestorePolicy{expr: expr, program: prg}, nil
}

// CanRestore implements RestorePolicy.
func (p *CELRestorePolicy) CanRestore(ctx context.Context, principal *Principal, deletedBy *entity.Actor) error {
	vars := map[string]any{
		"principal": principalVars(principal),
		"deletedBy": actorVars(deletedBy),
	}

	out, _, err := p.program.ContextEval(ctx, vars)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("evaluate restore policy: %w", err))
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("restore policy returned %T", out.Value()))
	}
	if !allowed {
		return apperror.NewForbidden("restore not permitted by policy").
			WithDetail("policy", p.expr)
	}
	return nil
}

// String returns the source expression.
func (p *CELRestorePolicy) String() string {
	return p.expr
}

func principalVars(p *Principal) map[string]string {
	if p == nil {
		return map[string]string{"id": "", "email": "", "role": ""}
	}
	return map[string]string{"id": p.ID, "email": p.Email, "role": p.Role}
}

func actorVars(a *entity.Actor) map[string]string {
	if a == nil {
		return map[string]string{"id": "", "email": ""}
	}
	return map[string]string{"id": a.ID, "email": a.Email}
}
