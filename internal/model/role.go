package model

// Role is the closed set of user roles. The numeric value is the key stored
// in users.type_user_id and in the type_users lookup table.
type Role uint

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleManager
	RoleRepresentative
	RoleMember
	RoleViewer
)

// Roles lists every assignable role in key order.
var Roles = []Role{RoleAdmin, RoleManager, RoleRepresentative, RoleMember, RoleViewer}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleRepresentative, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

// String returns the canonical name carried in tokens and logs.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "ADMIN"
	case RoleManager:
		return "MANAGER"
	case RoleRepresentative:
		return "REPRESENTATIVE"
	case RoleMember:
		return "MEMBER"
	case RoleViewer:
		return "VIEWER"
	default:
		return "UNKNOWN"
	}
}

// DisplayName is the label seeded into type_users.name.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RoleManager:
		return "Gerente"
	case RoleRepresentative:
		return "Representante"
	case RoleMember:
		return "Membro"
	case RoleViewer:
		return "Visualizador"
	default:
		return ""
	}
}

// ParseRole maps a token claim back to a Role; unrecognised names yield RoleUnknown.
func ParseRole(name string) Role {
	for _, r := range Roles {
		if r.String() == name {
			return r
		}
	}
	return RoleUnknown
}

// RoleKeys returns the keys accepted in type_user_id.
func RoleKeys() []uint {
	keys := make([]uint, 0, len(Roles))
	for _, r := range Roles {
		keys = append(keys, uint(r))
	}
	return keys
}

// TypeUser is the persisted lookup row for a Role
type TypeUser struct {
	ID   uint   `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

// Role returns the enumerated role for this row
func (t TypeUser) Role() Role {
	r := Role(t.ID)
	if !r.Valid() {
		return RoleUnknown
	}
	return r
}
