package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/rift/store"
)

func (d *DB) CreatePromptHistory(ctx context.Context, create *store.PromptHistory) (*store.PromptHistory, error) {
	stmt := `INSERT INTO prompt_history (id, session_id, prompt, result_type, response, created_ts) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, create.SessionID, create.Prompt, create.ResultType, create.Response, create.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to insert prompt_history: %w", err)
	}
	return create, nil
}

func (d *DB) ListPromptHistory(ctx context.Context, find *store.FindPromptHistory) ([]*store.PromptHistory, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.SessionID != nil {
		where, args = append(where, "session_id = ?"), append(args, *find.SessionID)
	}
	query := `SELECT id, session_id, prompt, result_type, response, created_ts FROM prompt_history WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY id DESC`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt_history: %w", err)
	}
	defer rows.Close()

	list := []*store.PromptHistory{}
	for rows.Next() {
		h := &store.PromptHistory{}
		if err := rows.Scan(&h.ID, &h.SessionID, &h.Prompt, &h.ResultType, &h.Response, &h.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan prompt_history: %w", err)
		}
		list = append(list, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
