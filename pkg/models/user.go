package models

// User roles.
const (
	RoleCustomer     = "customer"
	RoleAdmin        = "admin"
	RoleSupportAgent = "support_agent"
)

// User is an account known to the service. Credentials live with the
// external auth collaborator; only identity and role are stored here.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedTS int64  `json:"created_ts,omitempty"`
	UpdatedTS int64  `json:"updated_ts,omitempty"`
}

// Handler reports whether the user may be assigned escalations.
func (u User) Handler() bool {
	return u.Role == RoleAdmin || u.Role == RoleSupportAgent
}
