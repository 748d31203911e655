package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"academy-api/internal/domain"
)

// ErrDuplicateEmail indica que ya existe un usuario con ese email.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository define el contrato de persistencia para usuarios.
// Es el unico escritor del estado de credenciales; los llamadores
// trabajan sobre copias transitorias.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateProfile(ctx context.Context, user domain.User) error
	SetVerificationCode(ctx context.Context, id, code string, issuedAt time.Time) error
	MarkVerified(ctx context.Context, id string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `
	id, full_name, email, password_hash, role, phone, gender, dob,
	school, class_level, subjects, address, guardian_name, guardian_phone,
	bio, profile_picture, verified, verification_code, code_issued_at,
	created_at, updated_at
`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		code *string
	)
	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Phone,
		&u.Gender,
		&u.DOB,
		&u.School,
		&u.ClassLevel,
		&u.Subjects,
		&u.Address,
		&u.GuardianName,
		&u.GuardianPhone,
		&u.Bio,
		&u.ProfilePicture,
		&u.Verified,
		&code,
		&u.CodeIssuedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if code != nil {
		u.VerificationCode = *code
	}
	return u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (
			id, full_name, email, password_hash, role, phone, gender, dob,
			school, class_level, subjects, verified, verification_code,
			code_issued_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
	`
	var code *string
	if user.VerificationCode != "" {
		code = &user.VerificationCode
	}
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FullName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Phone,
		user.Gender,
		user.DOB,
		user.School,
		user.ClassLevel,
		user.Subjects,
		user.Verified,
		code,
		user.CodeIssuedAt,
		user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// UpdateProfile persiste los campos de perfil ya mezclados por el servicio.
// Nunca toca email, password_hash, role ni el estado de verificacion.
func (r *PgUserRepository) UpdateProfile(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users SET
			full_name = $2, phone = $3, gender = $4, dob = $5, school = $6,
			class_level = $7, subjects = $8, address = $9, guardian_name = $10,
			guardian_phone = $11, bio = $12, profile_picture = $13,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FullName,
		user.Phone,
		user.Gender,
		user.DOB,
		user.School,
		user.ClassLevel,
		user.Subjects,
		user.Address,
		user.GuardianName,
		user.GuardianPhone,
		user.Bio,
		user.ProfilePicture,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SetVerificationCode reemplaza el codigo pendiente y su timestamp.
// Un resend invalida el codigo anterior porque solo se guarda el ultimo.
func (r *PgUserRepository) SetVerificationCode(ctx context.Context, id, code string, issuedAt time.Time) error {
	const query = `
		UPDATE users SET verification_code = $2, code_issued_at = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, code, issuedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkVerified marca al usuario como verificado y limpia el codigo.
func (r *PgUserRepository) MarkVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET verified = TRUE, verification_code = NULL,
			code_issued_at = NULL, updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
