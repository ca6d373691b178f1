// Package security provides the acting principal and restore policies.
package security

// Principal is the authenticated actor on whose behalf a mutating call is made.
// It is established by the access-control layer; the lifecycle core treats it
// as an opaque audit stamp and never interprets Role for gating.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

