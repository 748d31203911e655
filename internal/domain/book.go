package domain

import "time"

// Subjects validos para libros y lecciones.
var BookSubjects = []string{"Mathematics", "Physics", "Chemistry", "Biology", "General"}

// ValidBookSubject indica si el subject pertenece al catalogo.
func ValidBookSubject(subject string) bool {
	for _, s := range BookSubjects {
		if s == subject {
			return true
		}
	}
	return false
}

type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Subject      string    `json:"subject"`
	Description  string    `json:"description,omitempty"`
	FilePath     string    `json:"-"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	UploadedBy   string    `json:"uploaded_by"`
	Approved     bool      `json:"approved"`
	ApprovedBy   *string   `json:"approved_by,omitempty"`
	RejectReason string    `json:"reject_reason,omitempty"`
	Downloads    int       `json:"downloads"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
