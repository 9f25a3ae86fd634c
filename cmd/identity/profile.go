package identity

import "time"

// Profile is the full role-aware user record layered on top of an Identity.
//
// Remote fields take precedence over claims when both are present; the merge
// is performed by the profile loader, not here.
type Profile struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// MinimalProfile derives a best-effort Profile purely from identity claims.
// It is the last tier of the load fallback chain and the instant record shown
// while ground truth is still being fetched.
func MinimalProfile(id Identity) Profile {
	return Profile{
		ID:    id.ID,
		Role:  id.Role(),
		Name:  id.Name(),
		Email: id.Email(),
	}
}

// TechnicianDetail is the technician-specific extension of a Profile.
type TechnicianDetail struct {
	Specialty     string  `json:"specialty,omitempty"`
	Bio           string  `json:"bio,omitempty"`
	HourlyRate    float64 `json:"hourly_rate,omitempty"`
	Rating        float64 `json:"rating,omitempty"`
	JobsCompleted int     `json:"jobs_completed,omitempty"`
	Available     bool    `json:"available,omitempty"`
}

// CustomerDetail is the customer-specific extension of a Profile.
type CustomerDetail struct {
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	BookingsCount int    `json:"bookings_count,omitempty"`
}

// ExtendedProfile is the role-specific detail fetched separately from the
// base profile. Exactly one side is set, matching the profile role.
type ExtendedProfile struct {
	Technician *TechnicianDetail `json:"technician,omitempty"`
	Customer   *CustomerDetail   `json:"customer,omitempty"`
}
