package profile

import "strings"

// Placeholder names shown when a counterpart profile cannot be loaded.
const (
	UnknownProvider = "Unknown provider"
	UnknownCustomer = "Unknown customer"
)

// Profile is the display identity of a seeker or provider.
type Profile struct {
	ID        string `db:"id" json:"id"`
	Role      string `db:"role" json:"role"`
	FullName  string `db:"full_name" json:"fullName"`
	AvatarURL string `db:"avatar_url" json:"avatarUrl"`

	// Found is false for placeholders.
	Found bool `db:"-" json:"-"`
}

// DisplayName returns the full name or a placeholder for the role.
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return Placeholder(p.ID, p.Role).FullName
}

// Placeholder builds the fallback profile for id in role.
func Placeholder(id, role string) Profile {
	name := UnknownCustomer
	if role == "provider" {
		name = UnknownProvider
	}
	return Profile{ID: id, Role: role, FullName: name}
}
