package auth

import "context"

// IsRole reports whether the caller holds role. Admins hold every role.
func (m *Middleware) IsRole(ctx context.Context, role Role) bool {
	u := UserFrom(ctx)
	if u.Username == "" {
		return false
	}
	return u.Role.Name == role.Name || m.isAdminRole(u.Role.Name)
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	u := UserFrom(ctx)
	return u.Username != "" && m.isAdminRole(u.Role.Name)
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	return UserFrom(ctx).Username != ""
}

func (m *Middleware) isAdminRole(name string) bool {
	return m != nil && m.adminRole != "" && name == m.adminRole
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
