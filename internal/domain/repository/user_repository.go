package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/database"
)

// UserRepository persists user profiles and their membership sets.
type UserRepository interface {
	Ensure(ctx context.Context, userID string, at time.Time) error
	FindByID(ctx context.Context, userID string) (*model.User, error)
	UpdateName(ctx context.Context, userID, name string, at time.Time) error
	AddMember(ctx context.Context, userID string, flag model.MembershipFlag, problemID string) error
	RemoveMember(ctx context.Context, userID string, flag model.MembershipFlag, problemID string) error
	RemoveFromAllLists(ctx context.Context, userID string, problemIDs ...string) error
}

type sqlUserRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewUserRepository(db *sql.DB, dialect database.Dialect) UserRepository {
	return &sqlUserRepository{db: db, dialect: dialect}
}

// Ensure creates an empty profile for userID unless one exists.
func (r *sqlUserRepository) Ensure(ctx context.Context, userID string, at time.Time) error {
	query := r.dialect.Rebind(`INSERT INTO users (id, name, created_at, updated_at) VALUES (?, '', ?, ?)
	          ON CONFLICT (id) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, userID, r.dialect.Time(at), r.dialect.Time(at)); err != nil {
		return fmt.Errorf("sqlUserRepository.Ensure: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	query := r.dialect.Rebind(`SELECT id, name, created_at, updated_at FROM users WHERE id = ?`)
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Name, database.ScanTime(&user.CreatedAt), database.ScanTime(&user.UpdatedAt),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlUserRepository.FindByID: %w", err)
	}

	user.Favorites, user.SavedForLater, user.SolvedProblems = []string{}, []string{}, []string{}
	rows, err := r.db.QueryContext(ctx,
		r.dialect.Rebind(`SELECT list_name, problem_id FROM user_memberships WHERE user_id = ? ORDER BY list_name, problem_id`),
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlUserRepository.FindByID memberships: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var list, problemID string
		if err := rows.Scan(&list, &problemID); err != nil {
			return nil, fmt.Errorf("sqlUserRepository.FindByID scan: %w", err)
		}
		switch model.MembershipFlag(list) {
		case model.FlagFavorite:
			user.Favorites = append(user.Favorites, problemID)
		case model.FlagSavedForLater:
			user.SavedForLater = append(user.SavedForLater, problemID)
		case model.FlagSolved:
			user.SolvedProblems = append(user.SolvedProblems, problemID)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlUserRepository.FindByID rows.Err: %w", err)
	}
	return user, nil
}

func (r *sqlUserRepository) UpdateName(ctx context.Context, userID, name string, at time.Time) error {
	query := r.dialect.Rebind(`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, name, r.dialect.Time(at), userID)
	if err != nil {
		return fmt.Errorf("sqlUserRepository.UpdateName: %w", err)
	}
	return requireAffected(res, "sqlUserRepository.UpdateName")
}

// AddMember is a no-op when problemID is already in the set.
func (r *sqlUserRepository) AddMember(ctx context.Context, userID string, flag model.MembershipFlag, problemID string) error {
	query := r.dialect.Rebind(`INSERT INTO user_memberships (user_id, list_name, problem_id) VALUES (?, ?, ?)
	          ON CONFLICT (user_id, list_name, problem_id) DO NOTHING`)
	if _, err := r.db.ExecContext(ctx, query, userID, string(flag), problemID); err != nil {
		return fmt.Errorf("sqlUserRepository.AddMember: %w", err)
	}
	return nil
}

// RemoveMember is a no-op when problemID is not in the set.
func (r *sqlUserRepository) RemoveMember(ctx context.Context, userID string, flag model.MembershipFlag, problemID string) error {
	query := r.dialect.Rebind(`DELETE FROM user_memberships WHERE user_id = ? AND list_name = ? AND problem_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, userID, string(flag), problemID); err != nil {
		return fmt.Errorf("sqlUserRepository.RemoveMember: %w", err)
	}
	return nil
}

func (r *sqlUserRepository) RemoveFromAllLists(ctx context.Context, userID string, problemIDs ...string) error {
	if len(problemIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(problemIDs)), ", ")
	query := r.dialect.Rebind(`DELETE FROM user_memberships WHERE user_id = ? AND problem_id IN (` + placeholders + `)`)
	args := make([]any, 0, len(problemIDs)+1)
	args = append(args, userID)
	for _, id := range problemIDs {
		args = append(args, id)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlUserRepository.RemoveFromAllLists: %w", err)
	}
	return nil
}
