package auth

import (
	"encoding/json"
)

// Introspection is the subset of an RFC 7662 introspection response the
// gateway projects into upstream headers. Unknown response fields are
// ignored.
type Introspection struct {
	// Active reports whether the presented token is currently valid.
	Active bool `json:"active"`

	// Sub is the subject of the token, when the provider includes it.
	Sub string `json:"sub"`

	// PreferredUsername is the provider's display username, when present.
	PreferredUsername string `json:"preferred_username"`

	// RealmAccess carries the Keycloak-dialect role claim. Other IdP
	// dialects would be added as sibling fields, chosen by presence.
	RealmAccess RealmAccess `json:"realm_access"`
}

// RealmAccess is the realm_access role-claim extension.
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// UnmarshalJSON tolerates a missing or malformed extension: anything that
// is not an object with a roles string list yields zero roles rather than
// failing the introspection.
func (ra *RealmAccess) UnmarshalJSON(data []byte) error {
	type plain RealmAccess

	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		*ra = RealmAccess{}
		return nil
	}

	*ra = RealmAccess(decoded)
	return nil
}

// Roles returns the token's role claims. Absent extensions yield nil.
func (i *Introspection) Roles() []string {
	if i == nil {
		return nil
	}
	return i.RealmAccess.Roles
}
