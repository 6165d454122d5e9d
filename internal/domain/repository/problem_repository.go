package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/database"
)

// ProblemRepository persists canonical problem records. Every lookup is
// filtered by owner, so a problem owned by someone else reads as ErrNotFound.
type ProblemRepository interface {
	Create(ctx context.Context, problem *model.Problem) error
	FindByID(ctx context.Context, ownerID, problemID string) (*model.Problem, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Problem, error)
	ListByTopic(ctx context.Context, ownerID, topicID string) ([]model.Problem, error)
	Update(ctx context.Context, problem *model.Problem) (*model.Problem, error)
	SetFlag(ctx context.Context, ownerID, problemID string, flag model.MembershipFlag, value bool, at time.Time) (*model.Problem, error)
	Delete(ctx context.Context, ownerID, problemID string) (*model.Problem, error)
	DeleteByTopic(ctx context.Context, ownerID, topicID string) ([]string, error)
}

const problemColumns = `problem_id, owner_id, topic_id, title, statement, difficulty, language,
	problem_constraints, explanation, code, time_complexity, space_complexity,
	is_favorite, is_saved_for_later, is_solved, created_at, updated_at`

type sqlProblemRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewProblemRepository(db *sql.DB, dialect database.Dialect) ProblemRepository {
	return &sqlProblemRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProblem(row rowScanner) (*model.Problem, error) {
	p := &model.Problem{}
	err := row.Scan(
		&p.ProblemID, &p.OwnerID, &p.TopicID, &p.Title, &p.Statement, &p.Difficulty, &p.Language,
		&p.Constraints, &p.Explanation, &p.Code, &p.TimeComplexity, &p.SpaceComplexity,
		&p.IsFavorite, &p.IsSavedForLater, &p.IsSolved,
		database.ScanTime(&p.CreatedAt), database.ScanTime(&p.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *sqlProblemRepository) Create(ctx context.Context, p *model.Problem) error {
	query := r.dialect.Rebind(`INSERT INTO problems (` + problemColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		p.ProblemID, p.OwnerID, p.TopicID, p.Title, p.Statement, p.Difficulty, p.Language,
		p.Constraints, p.Explanation, p.Code, p.TimeComplexity, p.SpaceComplexity,
		p.IsFavorite, p.IsSavedForLater, p.IsSolved,
		r.dialect.Time(p.CreatedAt), r.dialect.Time(p.UpdatedAt),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("problem %s already exists: %w", p.ProblemID, common.ErrDuplicateKey)
		}
		return fmt.Errorf("sqlProblemRepository.Create: %w", err)
	}
	return nil
}

func (r *sqlProblemRepository) FindByID(ctx context.Context, ownerID, problemID string) (*model.Problem, error) {
	query := r.dialect.Rebind(`SELECT ` + problemColumns + ` FROM problems WHERE problem_id = ? AND owner_id = ?`)
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, problemID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlProblemRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *sqlProblemRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Problem, error) {
	query := r.dialect.Rebind(`SELECT ` + problemColumns + ` FROM problems WHERE owner_id = ? ORDER BY created_at, problem_id`)
	return r.list(ctx, "ListByOwner", query, ownerID)
}

func (r *sqlProblemRepository) ListByTopic(ctx context.Context, ownerID, topicID string) ([]model.Problem, error) {
	query := r.dialect.Rebind(`SELECT ` + problemColumns + ` FROM problems WHERE owner_id = ? AND topic_id = ? ORDER BY created_at, problem_id`)
	return r.list(ctx, "ListByTopic", query, ownerID, topicID)
}

func (r *sqlProblemRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Problem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlProblemRepository.%s scan: %w", op, err)
		}
		problems = append(problems, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.%s rows.Err: %w", op, err)
	}
	return problems, nil
}

// Update overwrites the editable fields of the record matching
// (ProblemID, OwnerID) and returns the stored row. TopicID, CreatedAt and
// the membership flags are never written; flags belong to SetFlag.
func (r *sqlProblemRepository) Update(ctx context.Context, p *model.Problem) (*model.Problem, error) {
	query := r.dialect.Rebind(`UPDATE problems SET
                title = ?, statement = ?, difficulty = ?, language = ?,
                problem_constraints = ?, explanation = ?, code = ?,
                time_complexity = ?, space_complexity = ?, updated_at = ?
              WHERE problem_id = ? AND owner_id = ?
              RETURNING ` + problemColumns)
	updated, err := scanProblem(r.db.QueryRowContext(ctx, query,
		p.Title, p.Statement, p.Difficulty, p.Language,
		p.Constraints, p.Explanation, p.Code,
		p.TimeComplexity, p.SpaceComplexity, r.dialect.Time(p.UpdatedAt),
		p.ProblemID, p.OwnerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlProblemRepository.Update: %w", err)
	}
	return updated, nil
}

func (r *sqlProblemRepository) SetFlag(ctx context.Context, ownerID, problemID string, flag model.MembershipFlag, value bool, at time.Time) (*model.Problem, error) {
	column := flag.Column()
	if column == "" {
		return nil, fmt.Errorf("unknown flag %q: %w", flag, common.ErrValidation)
	}
	query := r.dialect.Rebind(`UPDATE problems SET ` + column + ` = ?, updated_at = ?
              WHERE problem_id = ? AND owner_id = ?
              RETURNING ` + problemColumns)
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, value, r.dialect.Time(at), problemID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlProblemRepository.SetFlag: %w", err)
	}
	return p, nil
}

func (r *sqlProblemRepository) Delete(ctx context.Context, ownerID, problemID string) (*model.Problem, error) {
	query := r.dialect.Rebind(`DELETE FROM problems WHERE problem_id = ? AND owner_id = ? RETURNING ` + problemColumns)
	p, err := scanProblem(r.db.QueryRowContext(ctx, query, problemID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlProblemRepository.Delete: %w", err)
	}
	return p, nil
}

// DeleteByTopic removes every problem of the topic and returns their ids.
// Deleting from an empty topic is not an error.
func (r *sqlProblemRepository) DeleteByTopic(ctx context.Context, ownerID, topicID string) ([]string, error) {
	query := r.dialect.Rebind(`DELETE FROM problems WHERE owner_id = ? AND topic_id = ? RETURNING problem_id`)
	rows, err := r.db.QueryContext(ctx, query, ownerID, topicID)
	if err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.DeleteByTopic: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlProblemRepository.DeleteByTopic scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlProblemRepository.DeleteByTopic rows.Err: %w", err)
	}
	return ids, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
