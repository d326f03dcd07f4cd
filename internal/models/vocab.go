package models

import "fmt"

// Role is a closed vocabulary. The original design carried roles as open
// strings, which meant a typo ("amdin") silently created a user that no
// permission check would ever match. Here every untrusted string goes
// through ParseRole before it touches the store.
type Role string

const (
	RoleMember   Role = "member"
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
	RoleFinance  Role = "finance"
	RoleHR       Role = "hr"
)

// SourceKey is the unit of read-permission granting: a coarse category tag
// shared by a document and every chunk derived from it. Same closed-set
// treatment as Role — an unknown source key is rejected at the boundary,
// never stored, so it can never silently filter to nothing.
type SourceKey string

const (
	SourceGDrive      SourceKey = "gdrive"
	SourceConfluence  SourceKey = "confluence"
	SourceSlack       SourceKey = "slack"
	SourceNotion      SourceKey = "notion"
	SourcePublic      SourceKey = "public"
	SourceFinance     SourceKey = "finance"
	SourceEngineering SourceKey = "engineering"
	SourceHR          SourceKey = "hr"
)

// AvailableRoles returns the full role vocabulary, in a stable order.
// A fresh slice each call — callers may append or reorder freely.
func AvailableRoles() []Role {
	return []Role{RoleMember, RoleAdmin, RoleEngineer, RoleFinance, RoleHR}
}

// AvailableSources returns the full source vocabulary, in a stable order.
func AvailableSources() []SourceKey {
	return []SourceKey{
		SourceGDrive, SourceConfluence, SourceSlack, SourceNotion,
		SourcePublic, SourceFinance, SourceEngineering, SourceHR,
	}
}

// ParseRole converts an untrusted string to a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range AvailableRoles() {
		if s == string(r) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// ParseSourceKey converts an untrusted string to a SourceKey.
func ParseSourceKey(s string) (SourceKey, error) {
	for _, k := range AvailableSources() {
		if s == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// ParseSourceKeys validates a whole grant at once. Duplicates are collapsed
// and order is preserved — a grant is a set, but a stable one is easier to
// read back in the admin UI.
func ParseSourceKeys(in []string) ([]SourceKey, error) {
	out := make([]SourceKey, 0, len(in))
	seen := make(map[SourceKey]bool, len(in))
	for _, s := range in {
		k, err := ParseSourceKey(s)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

// SourceKeyStrings converts a grant back to plain strings for storage.
func SourceKeyStrings(keys []SourceKey) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, string(k))
	}
	return out
}
