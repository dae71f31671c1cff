package model

type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

type Principal struct {
	Subject string
	Role    Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) CanWrite() bool {
	return p.Role == RoleEditor || p.Role == RoleAdmin
}
