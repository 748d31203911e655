package domain

import "time"

// Tipos de grupo de estudio.
const (
	GroupTypeStudy      = "study"
	GroupTypeDiscussion = "discussion"
	GroupTypeProject    = "project"
)

// GroupSubjects incluye los subjects de libros mas preparacion de examenes.
var GroupSubjects = append(append([]string{}, BookSubjects...), "Exam Prep")

// ValidGroupSubject indica si el subject pertenece al catalogo de grupos.
func ValidGroupSubject(subject string) bool {
	for _, s := range GroupSubjects {
		if s == subject {
			return true
		}
	}
	return false
}

// ValidGroupType indica si el tipo de grupo es conocido.
func ValidGroupType(t string) bool {
	switch t {
	case GroupTypeStudy, GroupTypeDiscussion, GroupTypeProject:
		return true
	}
	return false
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	Type        string    `json:"type"`
	CreatorID   string    `json:"creator_id"`
	Members     []string  `json:"members"`
	Admins      []string  `json:"admins"`
	MaxMembers  int       `json:"max_members"`
	IsPrivate   bool      `json:"is_private"`
	JoinCode    string    `json:"-"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsMember indica si el usuario ya pertenece al grupo.
func (g Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
