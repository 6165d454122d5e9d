package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codenotes/internal/common"
	"codenotes/internal/domain/model"
	"codenotes/internal/platform/database"
)

// TopicRepository persists topics together with their embedded problem map.
// Each map entry is its own row, so writing one entry never touches another.
type TopicRepository interface {
	Create(ctx context.Context, topic *model.Topic) error
	FindByID(ctx context.Context, ownerID, topicID string) (*model.Topic, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Topic, error)
	UpdateTitle(ctx context.Context, ownerID, topicID, title string, at time.Time) (*model.Topic, error)
	Delete(ctx context.Context, ownerID, topicID string) error
	UpsertProblem(ctx context.Context, ownerID, topicID string, problem model.Problem) error
	RemoveProblem(ctx context.Context, ownerID, topicID, problemID string) (int, error)
	DeleteIfEmpty(ctx context.Context, ownerID, topicID string) (bool, error)
	ReplaceProblems(ctx context.Context, ownerID, topicID string, problems model.TopicProblems) error
}

type sqlTopicRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewTopicRepository(db *sql.DB, dialect database.Dialect) TopicRepository {
	return &sqlTopicRepository{db: db, dialect: dialect}
}

// Create writes the topic row and its initial entries as one document.
func (r *sqlTopicRepository) Create(ctx context.Context, t *model.Topic) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlTopicRepository.Create begin: %w", err)
	}
	defer tx.Rollback()

	query := r.dialect.Rebind(`INSERT INTO topics (owner_id, topic_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query, t.OwnerID, t.TopicID, t.Title, r.dialect.Time(t.CreatedAt), r.dialect.Time(t.UpdatedAt)); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("topic %s already exists: %w", t.TopicID, common.ErrDuplicateKey)
		}
		return fmt.Errorf("sqlTopicRepository.Create: %w", err)
	}
	if err := r.insertEntries(ctx, tx, t.OwnerID, t.TopicID, t.Problems); err != nil {
		return fmt.Errorf("sqlTopicRepository.Create entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlTopicRepository.Create commit: %w", err)
	}
	return nil
}

func (r *sqlTopicRepository) insertEntries(ctx context.Context, tx *sql.Tx, ownerID, topicID string, problems model.TopicProblems) error {
	if len(problems) == 0 {
		return nil
	}
	query := r.dialect.Rebind(`INSERT INTO topic_problems (owner_id, topic_id, problem_id, doc) VALUES (?, ?, ?, ?)`)
	for id, p := range problems {
		doc, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, ownerID, topicID, id, string(doc)); err != nil {
			return err
		}
	}
	return nil
}

func (r *sqlTopicRepository) FindByID(ctx context.Context, ownerID, topicID string) (*model.Topic, error) {
	query := r.dialect.Rebind(`SELECT owner_id, topic_id, title, created_at, updated_at FROM topics WHERE owner_id = ? AND topic_id = ?`)
	t := &model.Topic{}
	err := r.db.QueryRowContext(ctx, query, ownerID, topicID).Scan(
		&t.OwnerID, &t.TopicID, &t.Title, database.ScanTime(&t.CreatedAt), database.ScanTime(&t.UpdatedAt),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlTopicRepository.FindByID: %w", err)
	}

	entries, err := r.entries(ctx, `WHERE owner_id = ? AND topic_id = ?`, ownerID, topicID)
	if err != nil {
		return nil, fmt.Errorf("sqlTopicRepository.FindByID entries: %w", err)
	}
	t.Problems = entries[topicID]
	if t.Problems == nil {
		t.Problems = model.TopicProblems{}
	}
	return t, nil
}

func (r *sqlTopicRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Topic, error) {
	query := r.dialect.Rebind(`SELECT owner_id, topic_id, title, created_at, updated_at FROM topics WHERE owner_id = ? ORDER BY created_at, topic_id`)
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlTopicRepository.ListByOwner query: %w", err)
	}
	defer rows.Close()

	topics := []model.Topic{}
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.OwnerID, &t.TopicID, &t.Title, database.ScanTime(&t.CreatedAt), database.ScanTime(&t.UpdatedAt)); err != nil {
			return nil, fmt.Errorf("sqlTopicRepository.ListByOwner scan: %w", err)
		}
		topics = append(topics, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlTopicRepository.ListByOwner rows.Err: %w", err)
	}
	rows.Close()

	entries, err := r.entries(ctx, `WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlTopicRepository.ListByOwner entries: %w", err)
	}
	for i := range topics {
		topics[i].Problems = entries[topics[i].TopicID]
		if topics[i].Problems == nil {
			topics[i].Problems = model.TopicProblems{}
		}
	}
	return topics, nil
}

// entries loads embedded rows matching where and buckets them by topic id.
func (r *sqlTopicRepository) entries(ctx context.Context, where string, args ...any) (map[string]model.TopicProblems, error) {
	query := r.dialect.Rebind(`SELECT topic_id, problem_id, doc FROM topic_problems ` + where)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]model.TopicProblems{}
	for rows.Next() {
		var topicID, problemID, doc string
		if err := rows.Scan(&topicID, &problemID, &doc); err != nil {
			return nil, err
		}
		var p model.Problem
		if err := json.Unmarshal([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("decode embedded problem %s: %w", problemID, err)
		}
		if out[topicID] == nil {
			out[topicID] = model.TopicProblems{}
		}
		out[topicID][problemID] = p
	}
	return out, rows.Err()
}

func (r *sqlTopicRepository) UpdateTitle(ctx context.Context, ownerID, topicID, title string, at time.Time) (*model.Topic, error) {
	query := r.dialect.Rebind(`UPDATE topics SET title = ?, updated_at = ? WHERE owner_id = ? AND topic_id = ?`)
	res, err := r.db.ExecContext(ctx, query, title, r.dialect.Time(at), ownerID, topicID)
	if err != nil {
		return nil, fmt.Errorf("sqlTopicRepository.UpdateTitle: %w", err)
	}
	if err := requireAffected(res, "sqlTopicRepository.UpdateTitle"); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, ownerID, topicID)
}

// Delete removes the topic and whatever is left of its embedded map.
func (r *sqlTopicRepository) Delete(ctx context.Context, ownerID, topicID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlTopicRepository.Delete begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM topic_problems WHERE owner_id = ? AND topic_id = ?`), ownerID, topicID); err != nil {
		return fmt.Errorf("sqlTopicRepository.Delete entries: %w", err)
	}
	res, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM topics WHERE owner_id = ? AND topic_id = ?`), ownerID, topicID)
	if err != nil {
		return fmt.Errorf("sqlTopicRepository.Delete: %w", err)
	}
	if err := requireAffected(res, "sqlTopicRepository.Delete"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlTopicRepository.Delete commit: %w", err)
	}
	return nil
}

// UpsertProblem sets problems[problem.ProblemID] on an existing topic.
// It returns ErrNotFound when the topic does not exist.
func (r *sqlTopicRepository) UpsertProblem(ctx context.Context, ownerID, topicID string, p model.Problem) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("sqlTopicRepository.UpsertProblem encode: %w", err)
	}
	query := r.dialect.Rebind(`INSERT INTO topic_problems (owner_id, topic_id, problem_id, doc)
	          SELECT ?, ?, ?, ?
	          WHERE EXISTS (SELECT 1 FROM topics WHERE owner_id = ? AND topic_id = ?)
	          ON CONFLICT (owner_id, topic_id, problem_id) DO UPDATE SET doc = excluded.doc`)
	res, err := r.db.ExecContext(ctx, query, ownerID, topicID, p.ProblemID, string(doc), ownerID, topicID)
	if err != nil {
		return fmt.Errorf("sqlTopicRepository.UpsertProblem: %w", err)
	}
	return requireAffected(res, "sqlTopicRepository.UpsertProblem")
}

// RemoveProblem unsets problems[problemID] and returns how many entries
// remain. Removing an absent entry is not an error; a missing topic is.
func (r *sqlTopicRepository) RemoveProblem(ctx context.Context, ownerID, topicID, problemID string) (int, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`SELECT 1 FROM topics WHERE owner_id = ? AND topic_id = ?`), ownerID, topicID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("sqlTopicRepository.RemoveProblem lookup: %w", err)
	}

	query := r.dialect.Rebind(`DELETE FROM topic_problems WHERE owner_id = ? AND topic_id = ? AND problem_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, ownerID, topicID, problemID); err != nil {
		return 0, fmt.Errorf("sqlTopicRepository.RemoveProblem: %w", err)
	}

	var remaining int
	countQuery := r.dialect.Rebind(`SELECT COUNT(*) FROM topic_problems WHERE owner_id = ? AND topic_id = ?`)
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID, topicID).Scan(&remaining); err != nil {
		return 0, fmt.Errorf("sqlTopicRepository.RemoveProblem count: %w", err)
	}
	return remaining, nil
}

// DeleteIfEmpty deletes the topic only if its map has no entries at the
// moment of the delete, so a concurrent insert keeps the topic alive.
func (r *sqlTopicRepository) DeleteIfEmpty(ctx context.Context, ownerID, topicID string) (bool, error) {
	query := r.dialect.Rebind(`DELETE FROM topics WHERE owner_id = ? AND topic_id = ?
	          AND NOT EXISTS (SELECT 1 FROM topic_problems WHERE owner_id = ? AND topic_id = ?)`)
	res, err := r.db.ExecContext(ctx, query, ownerID, topicID, ownerID, topicID)
	if err != nil {
		return false, fmt.Errorf("sqlTopicRepository.DeleteIfEmpty: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlTopicRepository.DeleteIfEmpty rows affected: %w", err)
	}
	return n > 0, nil
}

// ReplaceProblems rewrites the whole embedded map of an existing topic.
func (r *sqlTopicRepository) ReplaceProblems(ctx context.Context, ownerID, topicID string, problems model.TopicProblems) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlTopicRepository.ReplaceProblems begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, r.dialect.Rebind(`SELECT 1 FROM topics WHERE owner_id = ? AND topic_id = ?`), ownerID, topicID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("sqlTopicRepository.ReplaceProblems lookup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM topic_problems WHERE owner_id = ? AND topic_id = ?`), ownerID, topicID); err != nil {
		return fmt.Errorf("sqlTopicRepository.ReplaceProblems clear: %w", err)
	}
	if err := r.insertEntries(ctx, tx, ownerID, topicID, problems); err != nil {
		return fmt.Errorf("sqlTopicRepository.ReplaceProblems insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlTopicRepository.ReplaceProblems commit: %w", err)
	}
	return nil
}
