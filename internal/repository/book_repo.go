package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"academy-api/internal/domain"
)

// BookFilter limita y pagina el listado de libros.
type BookFilter struct {
	Subject  string
	Search   string
	Approved bool
	Page     int
	Limit    int
}

// BookRepository define el contrato de persistencia para libros.
type BookRepository interface {
	Create(ctx context.Context, book domain.Book) error
	GetByID(ctx context.Context, id string) (domain.Book, error)
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error)
	SetApproval(ctx context.Context, id string, approved bool, approvedBy, rejectReason string) error
	Delete(ctx context.Context, id string) error
}

// PgBookRepository implementa BookRepository usando pgxpool.
type PgBookRepository struct {
	pool *pgxpool.Pool
}

func NewPgBookRepository(pool *pgxpool.Pool) *PgBookRepository {
	return &PgBookRepository{pool: pool}
}

const bookColumns = `
	id, title, author, subject, description, file_path, file_name,
	file_size, mime_type, uploaded_by, approved, approved_by,
	reject_reason, downloads, created_at, updated_at
`

func scanBook(row pgx.Row) (domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Subject,
		&b.Description,
		&b.FilePath,
		&b.FileName,
		&b.FileSize,
		&b.MimeType,
		&b.UploadedBy,
		&b.Approved,
		&b.ApprovedBy,
		&b.RejectReason,
		&b.Downloads,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}

func (r *PgBookRepository) Create(ctx context.Context, book domain.Book) error {
	const query = `
		INSERT INTO books (
			id, title, author, subject, description, file_path, file_name,
			file_size, mime_type, uploaded_by, approved, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		book.ID,
		book.Title,
		book.Author,
		book.Subject,
		book.Description,
		book.FilePath,
		book.FileName,
		book.FileSize,
		book.MimeType,
		book.UploadedBy,
		book.Approved,
		book.CreatedAt,
	)
	return err
}

func (r *PgBookRepository) GetByID(ctx context.Context, id string) (domain.Book, error) {
	const query = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	return scanBook(r.pool.QueryRow(ctx, query, id))
}

func (r *PgBookRepository) List(ctx context.Context, filter BookFilter) ([]domain.Book, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 10
	}

	where := `WHERE approved = $1`
	args := []any{filter.Approved}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		where += fmt.Sprintf(` AND subject = $%d`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (title ILIKE $%d OR author ILIKE $%d)`, len(args), len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM books ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	listQuery := fmt.Sprintf(
		`SELECT %s FROM books %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		bookColumns, where, len(args)-1, len(args),
	)
	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	return books, total, rows.Err()
}

func (r *PgBookRepository) SetApproval(ctx context.Context, id string, approved bool, approvedBy, rejectReason string) error {
	const query = `
		UPDATE books SET approved = $2, approved_by = $3, reject_reason = $4, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, approved, approvedBy, rejectReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgBookRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
