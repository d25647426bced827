package domain

// Role is the fixed category of a connected client. It determines which
// broadcast audiences the connection belongs to. A connection starts
// unclassified and transitions exactly once when it identifies itself.
type Role int

const (
	RoleUnclassified Role = iota
	RoleInstallation      // "TD" - physical installation client
	RolePublic            // "web" - public display wall
	RoleAdmin             // "admin" - admin dashboard
	RoleReview            // "review" - moderation console
)

// Declared client names on the wire.
const (
	ClientNameInstallation = "TD"
	ClientNamePublic       = "web"
	ClientNameAdmin        = "admin"
	ClientNameReview       = "review"
)

// RoleFromClientName maps a declared client name to its role. Unknown names
// return ErrUnknownRole; the caller keeps the connection unclassified but
// connected.
func RoleFromClientName(name string) (Role, error) {
	switch name {
	case ClientNameInstallation:
		return RoleInstallation, nil
	case ClientNamePublic:
		return RolePublic, nil
	case ClientNameAdmin:
		return RoleAdmin, nil
	case ClientNameReview:
		return RoleReview, nil
	default:
		return RoleUnclassified, ErrUnknownRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleInstallation:
		return ClientNameInstallation
	case RolePublic:
		return ClientNamePublic
	case RoleAdmin:
		return ClientNameAdmin
	case RoleReview:
		return ClientNameReview
	default:
		return "unclassified"
	}
}

// Audience predicates used when fanning out events.

// AudienceViewers matches the public wall and the admin dashboard.
func AudienceViewers(r Role) bool { return r == RolePublic || r == RoleAdmin }

// AudienceInstallation matches the physical installation client.
func AudienceInstallation(r Role) bool { return r == RoleInstallation }

// AudienceModerators matches the moderation console.
func AudienceModerators(r Role) bool { return r == RoleReview }
