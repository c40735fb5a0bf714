// Package featureflags describes optional backend capabilities, configured
// as a key=value list such as "atomic_user_role=on".
package featureflags

import "strings"

// AtomicUserRole marks a backend whose POST /Auth/create applies isAdmin
// itself, so no separate role assignment is needed.
const AtomicUserRole = "atomic_user_role"

func parseValue(value string) (on, ok bool) {
	switch value {
	case "on", "true", "1":
		return true, true
	case "off", "false", "0":
		return false, true
	}
	return false, false
}

// Manager answers flag lookups. A nil Manager has every flag off.
type Manager struct {
	flags map[string]bool
}

// NewManager parses a comma-separated key=value list. Malformed entries
// are skipped; names and values are case-insensitive.
func NewManager(raw string) *Manager {
	flags := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name = normalize(name)
		if name == "" {
			continue
		}
		if on, ok := parseValue(normalize(value)); ok {
			flags[name] = on
		}
	}
	return &Manager{flags: flags}
}

// Enabled reports whether a capability flag is switched on.
func (m *Manager) Enabled(name string) bool {
	if m == nil {
		return false
	}
	return m.flags[normalize(name)]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
