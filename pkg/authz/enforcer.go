// Package authz maps roles to permissions with a casbin RBAC model.
// Roles inherit downwards: CEO has every Director grant, Director every
// Supervisor grant. Customers hold none.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Checker answers capability questions for a role.
type Checker interface {
	Can(role enums.Role, perm enums.Permission) Decision
}

// Enforcer is the casbin-backed Checker.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadPolicy(enforcer, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: enforcer}, nil
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) != 4 {
				return fmt.Errorf("malformed policy line %q", line)
			}
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("add policy %v: %w", parts[1:], err)
			}
		case "g":
			if len(parts) != 3 {
				return fmt.Errorf("malformed grouping line %q", line)
			}
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("unknown policy type %q", parts[0])
		}
	}
	return nil
}

// Can reports whether role holds perm.
func (e *Enforcer) Can(role enums.Role, perm enums.Permission) Decision {
	if !role.IsValid() {
		return Deny(ReasonUnknownRole)
	}
	if !perm.IsValid() {
		return Deny(ReasonUnknownPermission)
	}
	obj, act, ok := strings.Cut(perm.String(), ":")
	if !ok {
		return Deny(ReasonUnknownPermission)
	}

	allowed, err := e.enforcer.Enforce(role.String(), obj, act)
	if err != nil {
		return Deny(ReasonEvaluation)
	}
	if !allowed {
		return Deny(ReasonNotGranted)
	}
	return Allow()
}

// PermissionsFor lists every permission granted to role, directly or inherited.
func (e *Enforcer) PermissionsFor(role enums.Role) []enums.Permission {
	var out []enums.Permission
	for _, perm := range enums.Permissions() {
		if e.Can(role, perm).Allowed {
			out = append(out, perm)
		}
	}
	return out
}
