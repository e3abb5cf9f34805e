package authz

// Project roles stored in users.role_id.
const (
	RoleMember      = 10
	RoleProjectLead = 20
	RoleGuest       = 30
	RoleManager     = 40
	RoleAdmin       = 50
)

// ElevatedRoles may delete tasks and cascade-close sub tasks.
var ElevatedRoles = []int{RoleProjectLead, RoleManager, RoleAdmin}

func IsElevated(roleID int) bool {
	return roleID == RoleProjectLead || roleID == RoleManager || roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleGuest
}
