package auth

import "slices"

// RoleUser is the single role granted to every registered account.
const RoleUser = "USER"

// Principal is an authenticated actor as seen by the authorization layer.
// PasswordHash is carried so the login flow can check credentials against
// the same lookup; it is never serialised.
type Principal struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"-"`
	Roles        []string `json:"roles"`
}

// NewPrincipal returns a principal with the default role set.
func NewPrincipal(username, passwordHash string) *Principal {
	return &Principal{
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        []string{RoleUser},
	}
}

// HasRole reports whether role is in the principal's role set.
func (p *Principal) HasRole(role string) bool {
	return p != nil && slices.Contains(p.Roles, role)
}
