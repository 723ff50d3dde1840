package store

import (
	"context"
	"fmt"

	"github.com/xhad/topicnews/pkg/topics"
)

// Load implements topics.Repository.
func (s *Store) Load(ctx context.Context) (topics.State, error) {
	sql := fmt.Sprintf(`SELECT name, selected FROM %s ORDER BY position`, s.topicsTable())

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return topics.State{}, fmt.Errorf("failed to query topics: %w", err)
	}
	defer rows.Close()

	var state topics.State
	for rows.Next() {
		var name string
		var selected bool
		if err := rows.Scan(&name, &selected); err != nil {
			return topics.State{}, fmt.Errorf("failed to scan topic: %w", err)
		}
		state.Topics = append(state.Topics, name)
		if selected {
			state.Selected = name
		}
	}

	return state, rows.Err()
}

// Save implements topics.Repository. The stored list is replaced wholesale.
func (s *Store) Save(ctx context.Context, state topics.State) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.topicsTable())); err != nil {
		return fmt.Errorf("failed to clear topics: %w", err)
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (name, position, selected) VALUES ($1, $2, $3)`, s.topicsTable())
	for i, name := range state.Topics {
		if _, err := tx.Exec(ctx, stmt, name, i, name == state.Selected); err != nil {
			return fmt.Errorf("failed to insert topic: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
