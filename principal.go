package sightings

import "github.com/google/uuid"

// PrincipalKind discriminates the two authenticated identities the
// application recognizes.
type PrincipalKind string

const (
	KindAdmin PrincipalKind = "admin"
	KindUser  PrincipalKind = "user"
)

// Principal is the resolved identity attached to a request. Exactly one of
// Admin or User is non nil, matching Kind.
type Principal struct {
	Kind  PrincipalKind
	Admin *Admin
	User  *User
}

// AdminPrincipal wraps an admin account.
func AdminPrincipal(a *Admin) *Principal {
	return &Principal{Kind: KindAdmin, Admin: a}
}

// UserPrincipal wraps a user account.
func UserPrincipal(u *User) *Principal {
	return &Principal{Kind: KindUser, User: u}
}

// IsAdmin reports whether the principal is an admin.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Kind == KindAdmin && p.Admin != nil
}

// IsUser reports whether the principal is a regular user.
func (p *Principal) IsUser() bool {
	return p != nil && p.Kind == KindUser && p.User != nil
}

// ID returns the account id behind the principal.
func (p *Principal) ID() uuid.UUID {
	switch {
	case p.IsAdmin():
		return p.Admin.ID
	case p.IsUser():
		return p.User.ID
	}
	return uuid.Nil
}

// DisplayName returns the human readable name behind the principal.
func (p *Principal) DisplayName() string {
	switch {
	case p.IsAdmin():
		return p.Admin.Name
	case p.IsUser():
		return p.User.Name
	}
	return ""
}
