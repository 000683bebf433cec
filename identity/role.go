package identity

import "strings"

// Role is the closed set of roles the assistant knows about.
type Role int

const (
	RoleDefault Role = iota
	RoleDealer
	RoleSalesRep
	RoleAdmin
)

// ParseRole maps a stored role string onto a Role. Matching ignores case and
// surrounding whitespace; anything unrecognised is RoleDefault.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dealer":
		return RoleDealer
	case "sales_rep", "salesrep", "sales-rep":
		return RoleSalesRep
	case "admin":
		return RoleAdmin
	default:
		return RoleDefault
	}
}

func (r Role) String() string {
	switch r {
	case RoleDealer:
		return "dealer"
	case RoleSalesRep:
		return "sales_rep"
	case RoleAdmin:
		return "admin"
	default:
		return "default"
	}
}

// Label is the human-readable form shown in the header
func (r Role) Label() string {
	switch r {
	case RoleDealer:
		return "Dealer"
	case RoleSalesRep:
		return "Sales Rep"
	case RoleAdmin:
		return "Admin"
	default:
		return "Guest"
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	*r = ParseRole(string(text))
	return nil
}
