package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rahul/outing/internal/outing"
)

// ErrNotFound is returned for an unknown plan id.
var ErrNotFound = errors.New("plan not found")

// DefaultUserID owns plans saved without a user.
const DefaultUserID = "default"

// createdLayout is fixed width so created_at sorts chronologically as text.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// PlanRecord is one persisted plan request with its agent results.
type PlanRecord struct {
	ID        string             `json:"id"`
	UserID    string             `json:"userId"`
	Prompt    string             `json:"prompt"`
	Location  outing.Destination `json:"location"`
	EventDate string             `json:"eventDate,omitempty"`
	Subtasks  []string           `json:"subtasks"`
	Results   []ResultRecord     `json:"results,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ResultRecord is one stored agent result. Data keeps the payload JSON as
// it was returned.
type ResultRecord struct {
	Agent string          `json:"agent"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// ResultsOf converts agent results for storage.
func ResultsOf(results []outing.AgentResult) ([]ResultRecord, error) {
	out := make([]ResultRecord, 0, len(results))
	for _, r := range results {
		rec := ResultRecord{Agent: r.Agent, Error: r.Error}
		if r.Data != nil {
			data, err := json.Marshal(r.Data)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s result: %w", r.Agent, err)
			}
			rec.Data = data
		}
		out = append(out, rec)
	}
	return out, nil
}

type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			country TEXT,
			state TEXT,
			city TEXT,
			event_date TEXT,
			subtasks TEXT,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS plans_user_created ON plans (user_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS agent_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			agent TEXT NOT NULL,
			payload TEXT,
			error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS chat_locations (
			chat_id TEXT PRIMARY KEY,
			country TEXT,
			state TEXT,
			city TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		_, err = db.Exec(q)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) Close() error {
	return h.DB.Close()
}

// SavePlan stores rec and its results in one transaction.
func (h *HistoryStore) SavePlan(ctx context.Context, rec PlanRecord) error {
	if rec.UserID == "" {
		rec.UserID = DefaultUserID
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	subtasks, err := json.Marshal(rec.Subtasks)
	if err != nil {
		return err
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO plans (id, user_id, prompt, country, state, city, event_date, subtasks, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Prompt, rec.Location.Country, rec.Location.State, rec.Location.City,
		rec.EventDate, string(subtasks), rec.CreatedAt.UTC().Format(createdLayout))
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	for i, r := range rec.Results {
		var payload any
		if len(r.Data) > 0 {
			payload = string(r.Data)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO agent_results (plan_id, position, agent, payload, error) VALUES (?, ?, ?, ?, ?)`,
			rec.ID, i, r.Agent, payload, r.Error)
		if err != nil {
			return fmt.Errorf("failed to insert %s result: %w", r.Agent, err)
		}
	}
	return tx.Commit()
}

const planColumns = `id, user_id, prompt, country, state, city, event_date, subtasks, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*PlanRecord, error) {
	var (
		rec                  PlanRecord
		country, state, city sql.NullString
		eventDate, subtasks  sql.NullString
		createdAt            string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Prompt, &country, &state, &city, &eventDate, &subtasks, &createdAt); err != nil {
		return nil, err
	}
	rec.Location = outing.Destination{Country: country.String, State: state.String, City: city.String}
	rec.EventDate = eventDate.String
	if subtasks.Valid && subtasks.String != "" {
		if err := json.Unmarshal([]byte(subtasks.String), &rec.Subtasks); err != nil {
			return nil, fmt.Errorf("corrupt subtasks for plan %s: %w", rec.ID, err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

// ListPlans returns the newest plans of userID, without their results.
func (h *HistoryStore) ListPlans(ctx context.Context, userID string, limit int) ([]PlanRecord, error) {
	if userID == "" {
		userID = DefaultUserID
	}
	rows, err := h.DB.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []PlanRecord{}
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *rec)
	}
	return plans, rows.Err()
}

// GetPlan returns a plan with its results in subtask order.
func (h *HistoryStore) GetPlan(ctx context.Context, id string) (*PlanRecord, error) {
	rec, err := scanPlan(h.DB.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.DB.QueryContext(ctx,
		`SELECT agent, payload, error FROM agent_results WHERE plan_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rec.Results = []ResultRecord{}
	for rows.Next() {
		var r ResultRecord
		var payload, msg sql.NullString
		if err := rows.Scan(&r.Agent, &payload, &msg); err != nil {
			return nil, err
		}
		if payload.Valid {
			r.Data = json.RawMessage(payload.String)
		}
		r.Error = msg.String
		rec.Results = append(rec.Results, r)
	}
	return rec, rows.Err()
}

// DeletePlan removes a plan and its results.
func (h *HistoryStore) DeletePlan(ctx context.Context, id string) error {
	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_results WHERE plan_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// SetChatDestination remembers the last destination a chat confirmed.
func (h *HistoryStore) SetChatDestination(ctx context.Context, chatID string, d outing.Destination) error {
	_, err := h.DB.ExecContext(ctx,
		`INSERT INTO chat_locations (chat_id, country, state, city, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(chat_id) DO UPDATE SET country = excluded.country, state = excluded.state, city = excluded.city, updated_at = CURRENT_TIMESTAMP`,
		chatID, d.Country, d.State, d.City)
	return err
}

// ChatDestination returns the remembered destination of a chat, or nil.
func (h *HistoryStore) ChatDestination(ctx context.Context, chatID string) (*outing.Destination, error) {
	var d outing.Destination
	err := h.DB.QueryRowContext(ctx, `SELECT country, state, city FROM chat_locations WHERE chat_id = ?`, chatID).
		Scan(&d.Country, &d.State, &d.City)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
