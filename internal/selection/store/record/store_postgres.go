package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"reviewdraw/internal/selection/models"
	"reviewdraw/pkg/domain"
	"reviewdraw/pkg/platform/sentinel"
	"reviewdraw/pkg/platform/tx"
)

const pgUniqueViolation = "23505"

// Postgres stores records across selection_records, selection_entries and
// selection_log. Update holds a row lock on the record for the whole mutation.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, rec *models.Record) error {
	if err := checkCreate(rec); err != nil {
		return err
	}
	return tx.Run(ctx, s.db, func(ctx context.Context, sqlTx *sql.Tx) error {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO selection_records (
				id, project_number, project_name, organization_unit, extract_date,
				supervisor, operator_id, status, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.ID.String(), rec.Project.Number, rec.Project.Name, rec.Project.OrganizationUnit,
			rec.Project.ExtractDate, rec.Project.Supervisor, rec.Project.OperatorID,
			string(rec.Status), rec.Version, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return fmt.Errorf("record %s: %w", rec.ID, sentinel.ErrAlreadyExists)
			}
			return fmt.Errorf("insert record: %w", err)
		}
		if err := insertEntries(ctx, sqlTx, rec); err != nil {
			return err
		}
		return insertLog(ctx, sqlTx, rec.ID, rec.Log, 0)
	})
}

func (s *Postgres) Get(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	conn := tx.Conn(ctx, s.db)
	rec, err := scanRecord(conn.QueryRowContext(ctx, recordColumns+` WHERE id = $1`, id.String()))
	if err != nil {
		return nil, err
	}
	if err := loadChildren(ctx, conn, []*models.Record{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Postgres) Update(ctx context.Context, id domain.RecordID, mutate Mutator) (*models.Record, error) {
	var updated *models.Record
	err := tx.Run(ctx, s.db, func(ctx context.Context, sqlTx *sql.Tx) error {
		current, err := scanRecord(sqlTx.QueryRowContext(ctx, recordColumns+` WHERE id = $1 FOR UPDATE`, id.String()))
		if err != nil {
			return err
		}
		if err := loadChildren(ctx, sqlTx, []*models.Record{current}); err != nil {
			return err
		}
		next, err := applyMutation(ctx, current, mutate)
		if err != nil {
			return err
		}

		if _, err := sqlTx.ExecContext(ctx, `
			UPDATE selection_records SET status = $2, version = $3, updated_at = $4 WHERE id = $1`,
			id.String(), string(next.Status), next.Version, next.UpdatedAt); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if _, err := sqlTx.ExecContext(ctx, `DELETE FROM selection_entries WHERE record_id = $1`, id.String()); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		if err := insertEntries(ctx, sqlTx, next); err != nil {
			return err
		}
		if err := insertLog(ctx, sqlTx, id, next.Log[len(current.Log):], len(current.Log)); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Postgres) List(ctx context.Context, filter models.Filter) ([]*models.Record, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if q := strings.TrimSpace(filter.ProjectQuery); q != "" {
		p := arg("%" + likeEscaper.Replace(q) + "%")
		where = append(where, fmt.Sprintf("(project_name ILIKE %s OR project_number ILIKE %s)", p, p))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= "+arg(filter.Since))
	}
	if !filter.Until.IsZero() {
		where = append(where, "created_at < "+arg(filter.Until))
	}

	query := recordColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	conn := tx.Conn(ctx, s.db)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	if err := loadChildren(ctx, conn, out); err != nil {
		return nil, err
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const recordColumns = `
	SELECT id, project_number, project_name, organization_unit, extract_date,
		supervisor, operator_id, status, version, created_at, updated_at
	FROM selection_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec    models.Record
		id     string
		status string
	)
	err := row.Scan(&id, &rec.Project.Number, &rec.Project.Name, &rec.Project.OrganizationUnit,
		&rec.Project.ExtractDate, &rec.Project.Supervisor, &rec.Project.OperatorID,
		&status, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	parsed, err := domain.ParseRecordID(id)
	if err != nil {
		return nil, fmt.Errorf("stored record id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.Status = models.Status(status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.Entries = []models.AllocationEntry{}
	rec.Log = []models.AuditEntry{}
	return &rec, nil
}

// loadChildren fills entries and log for recs with one query per table.
func loadChildren(ctx context.Context, conn tx.Execer, recs []*models.Record) error {
	if len(recs) == 0 {
		return nil
	}
	byID := make(map[string]*models.Record, len(recs))
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		byID[rec.ID.String()] = rec
		ids = append(ids, rec.ID.String())
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT record_id, expert_id, expert_name, category_id, category_name
		FROM selection_entries WHERE record_id = ANY($1::uuid[]) ORDER BY record_id, position`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	for rows.Next() {
		var (
			recordID, expertID, categoryID string
			e                              models.AllocationEntry
		)
		if err := rows.Scan(&recordID, &expertID, &e.ExpertName, &categoryID, &e.CategoryName); err != nil {
			rows.Close()
			return fmt.Errorf("scan entry: %w", err)
		}
		e.ExpertID = domain.ExpertKey(expertID)
		e.CategoryID = domain.CategoryID(categoryID)
		if rec, ok := byID[recordID]; ok {
			rec.Entries = append(rec.Entries, e)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate entries: %w", err)
	}

	rows, err = conn.QueryContext(ctx, `
		SELECT record_id, kind, timestamp, category_name, expert_name, replaced_name, new_name, reason
		FROM selection_log WHERE record_id = ANY($1::uuid[]) ORDER BY record_id, seq`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load log: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			recordID, kind string
			ts             time.Time
			entry          models.AuditEntry
		)
		if err := rows.Scan(&recordID, &kind, &ts, &entry.CategoryName, &entry.ExpertName,
			&entry.ReplacedName, &entry.NewName, &entry.Reason); err != nil {
			return fmt.Errorf("scan log entry: %w", err)
		}
		entry.Kind = models.EntryKind(kind)
		entry.Timestamp = ts.UTC()
		if rec, ok := byID[recordID]; ok {
			rec.Log = append(rec.Log, entry)
		}
	}
	return rows.Err()
}

func insertEntries(ctx context.Context, sqlTx *sql.Tx, rec *models.Record) error {
	for i, e := range rec.Entries {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO selection_entries (record_id, position, expert_id, expert_name, category_id, category_name)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.ID.String(), i, string(e.ExpertID), e.ExpertName, string(e.CategoryID), e.CategoryName); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	return nil
}

func insertLog(ctx context.Context, sqlTx *sql.Tx, id domain.RecordID, entries []models.AuditEntry, firstSeq int) error {
	for i, entry := range entries {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO selection_log (record_id, seq, kind, timestamp, category_name, expert_name, replaced_name, new_name, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id.String(), firstSeq+i, string(entry.Kind), entry.Timestamp, entry.CategoryName,
			entry.ExpertName, entry.ReplacedName, entry.NewName, entry.Reason); err != nil {
			return fmt.Errorf("insert log entry %d: %w", firstSeq+i, err)
		}
	}
	return nil
}
