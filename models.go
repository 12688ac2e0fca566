package adminauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the principal's role
type Role = string

const (
	// RoleSuperAdmin can manage every sub admin account
	RoleSuperAdmin Role = "superAdmin"
	// RoleSubAdmin is a provisioned account gated behind approval
	RoleSubAdmin Role = "subAdmin"
)

// RequestStatus is the approval lifecycle of a provisioned account
type RequestStatus = string

const (
	// StatusApproved account may authenticate
	StatusApproved RequestStatus = "approved"
	// StatusPending account awaits super admin review
	StatusPending RequestStatus = "pending"
	// StatusRejected account was denied by a super admin
	StatusRejected RequestStatus = "rejected"
)

// Principal is the account model
type Principal struct {
	bun.BaseModel    `bun:"table:principals,alias:pr"`
	ID               uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username         string        `bun:"username,notnull,unique" json:"username,omitempty"`
	Email            string        `bun:"email,notnull,unique" json:"email,omitempty"`
	CredentialDigest string        `bun:"credential_digest,notnull" json:"-"`
	Role             Role          `bun:"principal_role,notnull" json:"role,omitempty"`
	RequestStatus    RequestStatus `bun:"request_status,notnull" json:"request_status,omitempty"`
	IsActive         bool          `bun:"is_active" json:"is_active"`
	CreatedByID      *uuid.UUID    `bun:"created_by,nullzero,type:uuid" json:"created_by,omitempty"`
	CreatedBy        *Principal    `bun:"rel:belongs-to,join:created_by=id" json:"creator,omitempty"`
	CreatedAt        *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the request status on records missing one.
// A super admin is always implicitly approved.
func (p *Principal) EnsureStatus() {
	if p.RequestStatus == "" {
		p.RequestStatus = StatusPending
	}
	if p.Role == RoleSuperAdmin {
		p.RequestStatus = StatusApproved
	}
}

// IsSubAdmin reports whether the principal sits in the managed tier.
func (p *Principal) IsSubAdmin() bool {
	return p != nil && p.Role == RoleSubAdmin
}

// Projection is the public shape of a Principal. The credential digest never
// leaves the core; callers only ever see this view.
type Projection struct {
	ID            string        `json:"id"`
	Username      string        `json:"username"`
	Email         string        `json:"email"`
	Role          Role          `json:"role"`
	RequestStatus RequestStatus `json:"request_status"`
	IsActive      bool          `json:"is_active"`
	CreatedBy     *CreatorRef   `json:"created_by,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
}

// CreatorRef identifies the super admin that provisioned an account.
type CreatorRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Project builds the public projection for the principal.
func (p *Principal) Project() Projection {
	out := Projection{
		ID:            p.ID.String(),
		Username:      p.Username,
		Email:         p.Email,
		Role:          p.Role,
		RequestStatus: p.RequestStatus,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}

	if p.CreatedBy != nil {
		out.CreatedBy = &CreatorRef{
			ID:       p.CreatedBy.ID.String(),
			Username: p.CreatedBy.Username,
			Email:    p.CreatedBy.Email,
		}
	} else if p.CreatedByID != nil {
		out.CreatedBy = &CreatorRef{ID: p.CreatedByID.String()}
	}

	return out
}

// ProjectAll maps a result set into projections, preserving repository order.
func ProjectAll(principals []*Principal) []Projection {
	out := make([]Projection, 0, len(principals))
	for _, p := range principals {
		if p == nil {
			continue
		}
		out = append(out, p.Project())
	}
	return out
}
