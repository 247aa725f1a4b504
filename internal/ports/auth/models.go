package auth

// Role es el rol del caller ya resuelto por el collaborator de identidad.
// La autorización fina es externa; acá solo distinguimos tutor de admin
// para las transiciones de workflow que lo exigen.
type Role string

const (
	RoleTutor Role = "tutor"
	RoleAdmin Role = "admin"
)

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
	Role     Role
}
