package domain

import "time"

// Tipos de contenido soportados por una leccion.
const (
	LectureContentVideo = "video"
	LectureContentNotes = "notes"
	LectureContentPDF   = "pdf"
	LectureContentQuiz  = "quiz"
)

// ValidLectureContentType indica si el tipo de contenido es conocido.
func ValidLectureContentType(t string) bool {
	switch t {
	case LectureContentVideo, LectureContentNotes, LectureContentPDF, LectureContentQuiz:
		return true
	}
	return false
}

type Lecture struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Subject     string     `json:"subject"`
	Topic       string     `json:"topic"`
	TutorID     string     `json:"tutor_id"`
	ContentType string     `json:"content_type"`
	ContentURL  string     `json:"content_url,omitempty"`
	FilePath    string     `json:"-"`
	FileName    string     `json:"file_name,omitempty"`
	Duration    int        `json:"duration,omitempty"`
	Level       string     `json:"level"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Views       int        `json:"views"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
