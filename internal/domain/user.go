package domain

type Role string

const (
	RoleStudent   Role = "student"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// AuthUser is the caller identity taken from a Core bearer token.
type AuthUser struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsStaff reports whether the user may run back-office operations.
func (u AuthUser) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleLibrarian
}
