package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_log (
    id          TEXT PRIMARY KEY,
    actor_id    TEXT NOT NULL,
    actor_email TEXT NOT NULL DEFAULT '',
    company_id  TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    target_type TEXT NOT NULL DEFAULT '',
    target_id   TEXT NOT NULL DEFAULT '',
    details     JSONB,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_company_created_idx ON audit_log (company_id, created_at DESC);`

// row mirrors audit_log; details travel as raw JSON.
type row struct {
	ID         string    `db:"id"`
	ActorID    string    `db:"actor_id"`
	ActorEmail string    `db:"actor_email"`
	CompanyID  string    `db:"company_id"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   string    `db:"target_id"`
	Details    []byte    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}

// Postgres is an audit log backed by the audit_log table.
type Postgres struct {
	db  *sqlx.DB
	log *zap.Logger
}

// Connect opens a Postgres connection pool for dsn.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect audit database: %w", err)
	}
	return db, nil
}

// NewPostgres wraps db.
func NewPostgres(db *sqlx.DB, log *zap.Logger) *Postgres {
	if log == nil {
		log = zap.NewNop()
	}
	return &Postgres{db: db, log: log}
}

// EnsureSchema creates the audit table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

func (p *Postgres) Record(ctx context.Context, entry domain.AuditEntry) error {
	prepare(&entry)

	var details []byte
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("encode audit details: %w", err)
		}
		details = b
	}

	const query = `INSERT INTO audit_log
        (id, actor_id, actor_email, company_id, action, target_type, target_id, details, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := p.db.ExecContext(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.ActorEmail,
		entry.CompanyID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		p.log.Error("audit insert failed", zap.String("action", entry.Action), zap.Error(err))
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.CompanyID != "" {
		add("company_id = $%d", f.CompanyID)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, actor_id, actor_email, company_id, action, target_type, target_id, details, created_at FROM audit_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var rows []row
	if err := p.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	out := make([]domain.AuditEntry, 0, len(rows))
	for _, r := range rows {
		e := domain.AuditEntry{
			ID:         r.ID,
			ActorID:    r.ActorID,
			ActorEmail: r.ActorEmail,
			CompanyID:  r.CompanyID,
			Action:     r.Action,
			TargetType: r.TargetType,
			TargetID:   r.TargetID,
			CreatedAt:  r.CreatedAt,
		}
		if len(r.Details) > 0 {
			if err := json.Unmarshal(r.Details, &e.Details); err != nil {
				p.log.Warn("bad audit details", zap.String("id", r.ID), zap.Error(err))
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
