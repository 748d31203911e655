package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"academy-api/internal/domain"
)

// ErrDuplicateGroupName indica que ya existe un grupo con ese nombre.
var ErrDuplicateGroupName = errors.New("group name already taken")

// GroupRepository define el contrato de persistencia para grupos de estudio.
type GroupRepository interface {
	Create(ctx context.Context, group domain.Group) error
	GetByID(ctx context.Context, id string) (domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	Update(ctx context.Context, group domain.Group) error
	AddMember(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
}

// PgGroupRepository implementa GroupRepository usando pgxpool.
type PgGroupRepository struct {
	pool *pgxpool.Pool
}

func NewPgGroupRepository(pool *pgxpool.Pool) *PgGroupRepository {
	return &PgGroupRepository{pool: pool}
}

const groupColumns = `
	id, name, description, subject, group_type, creator_id, members,
	admins, max_members, is_private, join_code, is_active, created_at,
	updated_at
`

func scanGroup(row pgx.Row) (domain.Group, error) {
	var g domain.Group
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.Description,
		&g.Subject,
		&g.Type,
		&g.CreatorID,
		&g.Members,
		&g.Admins,
		&g.MaxMembers,
		&g.IsPrivate,
		&g.JoinCode,
		&g.IsActive,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	return g, err
}

func (r *PgGroupRepository) Create(ctx context.Context, group domain.Group) error {
	const query = `
		INSERT INTO groups (
			id, name, description, subject, group_type, creator_id, members,
			admins, max_members, is_private, join_code, is_active, created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.Subject,
		group.Type,
		group.CreatorID,
		group.Members,
		group.Admins,
		group.MaxMembers,
		group.IsPrivate,
		group.JoinCode,
		group.IsActive,
		group.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateGroupName
	}
	return err
}

func (r *PgGroupRepository) GetByID(ctx context.Context, id string) (domain.Group, error) {
	const query = `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	return scanGroup(r.pool.QueryRow(ctx, query, id))
}

func (r *PgGroupRepository) List(ctx context.Context) ([]domain.Group, error) {
	const query = `SELECT ` + groupColumns + ` FROM groups WHERE is_active ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *PgGroupRepository) Update(ctx context.Context, group domain.Group) error {
	const query = `
		UPDATE groups SET
			name = $2, description = $3, subject = $4, group_type = $5,
			max_members = $6, is_private = $7, join_code = $8, is_active = $9,
			updated_at = now()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.Subject,
		group.Type,
		group.MaxMembers,
		group.IsPrivate,
		group.JoinCode,
		group.IsActive,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateGroupName
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AddMember agrega el usuario al arreglo de miembros si no esta presente.
func (r *PgGroupRepository) AddMember(ctx context.Context, id, userID string) error {
	const query = `
		UPDATE groups SET members = array_append(members, $2), updated_at = now()
		WHERE id = $1 AND NOT ($2 = ANY(members))
	`
	_, err := r.pool.Exec(ctx, query, id, userID)
	return err
}

func (r *PgGroupRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
