package authz

// Permission types grantable on a page.
const (
	PermView   = "view"
	PermCreate = "create"
	PermUpdate = "update"
	PermDelete = "delete"
	PermAssign = "assign"
)

// PermissionTypes lists every grantable permission type.
var PermissionTypes = []string{PermView, PermCreate, PermUpdate, PermDelete, PermAssign}

// Identity is the authenticated caller as seen by the authorization core.
//
// Superuser and OwnershipScoped are resolved from the role exactly once when
// the identity is loaded; downstream code never inspects role identifiers.
type Identity struct {
	UserID          string
	RoleID          string
	Superuser       bool
	OwnershipScoped bool
}

// ValidPermissionType reports whether the value is a known permission type.
func ValidPermissionType(value string) bool {
	for _, permType := range PermissionTypes {
		if permType == value {
			return true
		}
	}
	return false
}
