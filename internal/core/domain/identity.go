package domain

import "time"

// Identity is the verified content of a session token.
type Identity struct {
	SubjectID string
	Email     string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Owns reports whether the identity acts for the given user id.
func (i Identity) Owns(userID string) bool {
	return i.SubjectID != "" && i.SubjectID == userID
}
