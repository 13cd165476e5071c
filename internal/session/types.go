package session

// Profile is the cached snapshot of the authenticated user, as returned by
// the backend's /auth/me endpoint. It is advisory: the server copy is the
// source of truth and the snapshot is refreshed on profile fetches.
type Profile struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email"`
	Credits      int64  `json:"credits"`
	IsAdmin      bool   `json:"isAdmin"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// Credential is the persisted session state: an opaque bearer token and the
// profile snapshot issued alongside it. The two are always set and cleared
// together — never only one.
type Credential struct {
	Token   string
	Profile Profile
}

// Valid reports whether the credential is complete enough to persist.
func (c Credential) Valid() bool {
	return c.Token != "" && c.Profile.ID != ""
}

// RoleHint carries the cached role flags for cosmetic decisions such as
// whether to show an admin menu entry. It must never be used to gate access
// to privileged operations; the cache can be stale relative to server-side
// role changes. Authoritative decisions come from guard.Verdict.
type RoleHint struct {
	IsAdmin      bool
	IsSuperAdmin bool
}

// Hint derives the cosmetic role hint from the cached profile.
func (c Credential) Hint() RoleHint {
	return RoleHint{
		IsAdmin:      c.Profile.IsAdmin,
		IsSuperAdmin: c.Profile.IsSuperAdmin,
	}
}
