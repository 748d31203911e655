package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"academy-api/internal/domain"
)

// LectureRepository define el contrato de persistencia para lecciones.
type LectureRepository interface {
	Create(ctx context.Context, lecture domain.Lecture) error
	GetByID(ctx context.Context, id string) (domain.Lecture, error)
	List(ctx context.Context) ([]domain.Lecture, error)
	Update(ctx context.Context, lecture domain.Lecture) error
	Delete(ctx context.Context, id string) error
}

// PgLectureRepository implementa LectureRepository usando pgxpool.
type PgLectureRepository struct {
	pool *pgxpool.Pool
}

func NewPgLectureRepository(pool *pgxpool.Pool) *PgLectureRepository {
	return &PgLectureRepository{pool: pool}
}

const lectureColumns = `
	id, title, description, subject, topic, tutor_id, content_type,
	content_url, file_path, file_name, duration, level, is_published,
	published_at, views, tags, created_at, updated_at
`

func scanLecture(row pgx.Row) (domain.Lecture, error) {
	var l domain.Lecture
	err := row.Scan(
		&l.ID,
		&l.Title,
		&l.Description,
		&l.Subject,
		&l.Topic,
		&l.TutorID,
		&l.ContentType,
		&l.ContentURL,
		&l.FilePath,
		&l.FileName,
		&l.Duration,
		&l.Level,
		&l.IsPublished,
		&l.PublishedAt,
		&l.Views,
		&l.Tags,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	return l, err
}

func (r *PgLectureRepository) Create(ctx context.Context, lecture domain.Lecture) error {
	const query = `
		INSERT INTO lectures (
			id, title, description, subject, topic, tutor_id, content_type,
			content_url, file_path, file_name, duration, level, is_published,
			published_at, tags, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`
	_, err := r.pool.Exec(ctx, query,
		lecture.ID,
		lecture.Title,
		lecture.Description,
		lecture.Subject,
		lecture.Topic,
		lecture.TutorID,
		lecture.ContentType,
		lecture.ContentURL,
		lecture.FilePath,
		lecture.FileName,
		lecture.Duration,
		lecture.Level,
		lecture.IsPublished,
		lecture.PublishedAt,
		lecture.Tags,
		lecture.CreatedAt,
	)
	return err
}

func (r *PgLectureRepository) GetByID(ctx context.Context, id string) (domain.Lecture, error) {
	const query = `SELECT ` + lectureColumns + ` FROM lectures WHERE id = $1`
	return scanLecture(r.pool.QueryRow(ctx, query, id))
}

func (r *PgLectureRepository) List(ctx context.Context) ([]domain.Lecture, error) {
	const query = `SELECT ` + lectureColumns + ` FROM lectures ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lectures []domain.Lecture
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}

func (r *PgLectureRepository) Update(ctx context.Context, lecture domain.Lecture) error {
	const query = `
		UPDATE lectures SET
			title = $2, description = $3, subject = $4, topic = $5,
			content_type = $6, content_url = $7, duration = $8, level = $9,
			is_published = $10, published_at = $11, tags = $12, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		lecture.ID,
		lecture.Title,
		lecture.Description,
		lecture.Subject,
		lecture.Topic,
		lecture.ContentType,
		lecture.ContentURL,
		lecture.Duration,
		lecture.Level,
		lecture.IsPublished,
		lecture.PublishedAt,
		lecture.Tags,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgLectureRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lectures WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
