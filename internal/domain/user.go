package domain

import "time"

// Role define el rol de un usuario dentro de la plataforma.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Valid indica si el rol es uno de los conocidos.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return true
	}
	return false
}

// SelfRegisterable indica si el rol puede elegirse al registrarse.
// El rol admin solo se asigna por via administrativa.
func (r Role) SelfRegisterable() bool {
	return r == RoleStudent || r == RoleTutor
}

type User struct {
	ID               string     `json:"id"`
	FullName         string     `json:"full_name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Role             Role       `json:"role"`
	Phone            string     `json:"phone,omitempty"`
	Gender           string     `json:"gender,omitempty"`
	DOB              *time.Time `json:"dob,omitempty"`
	School           string     `json:"school,omitempty"`
	ClassLevel       string     `json:"class_level,omitempty"`
	Subjects         []string   `json:"subjects"`
	Address          string     `json:"address,omitempty"`
	GuardianName     string     `json:"guardian_name,omitempty"`
	GuardianPhone    string     `json:"guardian_phone,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	ProfilePicture   string     `json:"profile_picture,omitempty"`
	Verified         bool       `json:"verified"`
	VerificationCode string     `json:"-"`
	CodeIssuedAt     *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
