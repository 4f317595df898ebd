package models

// UserProfile is the free-form personal information bag supplied by the user.
// Keys are whatever the form sends (name, profession, interests, style, ...).
type UserProfile map[string]interface{}

// Merge overlays incoming fields onto the profile. Incoming values win on
// overlapping keys; keys absent from incoming are preserved.
func (p UserProfile) Merge(incoming UserProfile) UserProfile {
	merged := make(UserProfile, len(p)+len(incoming))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}
	return merged
}
