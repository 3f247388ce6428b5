package domain

type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return Role(raw), nil
	}
	return "", ErrUnknownRole
}

// Caller is the already-authenticated identity behind a request.
type Caller struct {
	UserID int64
	Role   Role
}

func (c Caller) IsStudent() bool { return c.Role == RoleStudent }

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
