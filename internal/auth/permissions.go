package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ErrUndefinedPermission is returned for resource/verb pairs the policy does
// not know about. Callers must treat it as a server fault, never as an allow.
var ErrUndefinedPermission = errors.New("undefined permission")

// Resource names a protected collection.
type Resource string

const (
	ResourceUsers   Resource = "users"
	ResourceSupport Resource = "support"
)

// Permission enumerates every resource:verb pair the policy covers.
type Permission int

const (
	PermUsersGet Permission = iota + 1
	PermUsersPost
	PermUsersDelete
	PermSupportPatch
	PermSupportDelete
)

func (p Permission) String() string {
	switch p {
	case PermUsersGet:
		return "users:get"
	case PermUsersPost:
		return "users:post"
	case PermUsersDelete:
		return "users:delete"
	case PermSupportPatch:
		return "support:patch"
	case PermSupportDelete:
		return "support:delete"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

// Roles returns the roles granted p.
func (p Permission) Roles() []domain.Role {
	switch p {
	case PermUsersGet:
		return []domain.Role{domain.RoleAdmin, domain.RoleAgent}
	case PermUsersPost:
		return []domain.Role{domain.RoleAdmin}
	case PermUsersDelete:
		return []domain.Role{domain.RoleAdmin}
	case PermSupportPatch:
		return []domain.Role{domain.RoleAdmin, domain.RoleAgent}
	case PermSupportDelete:
		return []domain.Role{domain.RoleAdmin}
	default:
		return nil
	}
}

// LookupPermission maps a resource and HTTP verb onto the policy table.
func LookupPermission(resource Resource, method string) (Permission, bool) {
	verb := strings.ToLower(method)
	switch resource {
	case ResourceUsers:
		switch verb {
		case "get":
			return PermUsersGet, true
		case "post":
			return PermUsersPost, true
		case "delete":
			return PermUsersDelete, true
		}
	case ResourceSupport:
		switch verb {
		case "patch":
			return PermSupportPatch, true
		case "delete":
			return PermSupportDelete, true
		}
	}
	return 0, false
}

// IsAllowed reports whether role may perform method on resource. Pairs that
// are missing from the table fail closed with ErrUndefinedPermission.
func IsAllowed(resource Resource, method string, role domain.Role) (bool, error) {
	perm, ok := LookupPermission(resource, method)
	if !ok {
		return false, fmt.Errorf("%w: %s:%s", ErrUndefinedPermission, resource, strings.ToLower(method))
	}
	for _, allowed := range perm.Roles() {
		if allowed == role {
			return true, nil
		}
	}
	return false, nil
}
