package enums

import "fmt"

// Permission names a single capability checked by the authorizer.
type Permission string

const (
	PermProductCreate     Permission = "product:create"
	PermProductUpdate     Permission = "product:update"
	PermProductDelete     Permission = "product:delete"
	PermProductStock      Permission = "product:stock"
	PermOrderReadAll      Permission = "order:read_all"
	PermOrderUpdateStatus Permission = "order:update_status"
	PermOrderDelete       Permission = "order:delete"
	PermReviewReadAll     Permission = "review:read_all"
	PermReviewModerate    Permission = "review:moderate"
	PermUserReadAll       Permission = "user:read_all"
	PermUserDelete        Permission = "user:delete"
	PermUserCreateAdmin   Permission = "user:create_admin"
	PermSubscriptionRead  Permission = "subscription:read"
)

var validPermissions = []Permission{
	PermProductCreate,
	PermProductUpdate,
	PermProductDelete,
	PermProductStock,
	PermOrderReadAll,
	PermOrderUpdateStatus,
	PermOrderDelete,
	PermReviewReadAll,
	PermReviewModerate,
	PermUserReadAll,
	PermUserDelete,
	PermUserCreateAdmin,
	PermSubscriptionRead,
}

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Permission.
func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// Permissions returns every known permission.
func Permissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}

// ParsePermission converts raw input into a Permission.
func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
