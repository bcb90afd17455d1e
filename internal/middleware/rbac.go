package middleware

import (
	"strings"

	"github.com/noah-isme/gate-api/internal/models"
)

// roleSet is an exact-match allow-list. An empty set admits every role.
type roleSet struct {
	allowed map[models.Role]struct{}
	message string
}

func newRoleSet(roles ...models.Role) roleSet {
	allowed := make(map[models.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if _, seen := allowed[role]; seen || role == "" {
			continue
		}
		allowed[role] = struct{}{}
		names = append(names, role.String())
	}

	return roleSet{
		allowed: allowed,
		message: "Forbidden: Access denied. Required roles: " + strings.Join(names, ", "),
	}
}

func (s roleSet) allows(role models.Role) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[role]
	return ok
}
