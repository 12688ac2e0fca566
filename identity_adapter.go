package adminauth

// PrincipalIdentity adapts a Principal into the Identity interface for token
// generation.
type PrincipalIdentity struct {
	principal *Principal
}

// NewIdentityFromPrincipal returns an Identity adapter for the provided principal.
func NewIdentityFromPrincipal(principal *Principal) Identity {
	if principal == nil {
		return nil
	}
	return PrincipalIdentity{principal: principal}
}

// ID returns the principal's id as a string.
func (p PrincipalIdentity) ID() string {
	if p.principal == nil {
		return ""
	}
	return p.principal.ID.String()
}

// Username returns the principal's username.
func (p PrincipalIdentity) Username() string {
	if p.principal == nil {
		return ""
	}
	return p.principal.Username
}

// Email returns the principal's email address.
func (p PrincipalIdentity) Email() string {
	if p.principal == nil {
		return ""
	}
	return p.principal.Email
}

// Role returns the principal's role as a string.
func (p PrincipalIdentity) Role() string {
	if p.principal == nil {
		return ""
	}
	return string(p.principal.Role)
}
