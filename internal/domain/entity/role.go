package entity

// Role is the business role attached to an identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBarber   Role = "barber"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleBarber, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
