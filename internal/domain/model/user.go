//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

// User is the backend's authoritative user record.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	FirstName string `json:"first_name" validate:"required,max=64"`
	LastName  string `json:"last_name"  validate:"max=64"`
	Phone     string `json:"phone"      validate:"omitempty,e164"`
}
