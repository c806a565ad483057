package model

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser1 Role = "user1"
	RoleUser2 Role = "user2"
	RoleUser3 Role = "user3"
)

var Roles = []Role{RoleAdmin, RoleUser1, RoleUser2, RoleUser3}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser1, RoleUser2, RoleUser3:
		return true
	}
	return false
}

// Session is the identity established at login. Token is a signed copy of
// Username and Role, checked when the session is restored from storage.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"token,omitempty"`
}
