// Package sqlite is a file-backed expert directory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"reviewdraw/internal/directory/models"
	"reviewdraw/internal/platform/storage/migrate"
	"reviewdraw/pkg/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store reads experts and categories from a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)
	if err := migrate.Apply(ctx, db, migrate.SQLite, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate directory: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) PutCategory(ctx context.Context, c models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		string(c.ID), c.Name)
	if err != nil {
		return fmt.Errorf("put category: %w", err)
	}
	return nil
}

func (s *Store) PutExpert(ctx context.Context, e models.Expert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO experts (id, name, category_id, in_service, gender, birth_date, work_unit,
			department, title, discipline, contact, internal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			category_id = excluded.category_id,
			in_service = excluded.in_service,
			gender = excluded.gender,
			birth_date = excluded.birth_date,
			work_unit = excluded.work_unit,
			department = excluded.department,
			title = excluded.title,
			discipline = excluded.discipline,
			contact = excluded.contact,
			internal = excluded.internal`,
		string(e.ID), e.Name, string(e.CategoryID), boolInt(e.InService), int(e.Gender), e.BirthDate,
		e.WorkUnit, e.Department, e.Title, e.Discipline, e.Contact, boolInt(e.Internal))
	if err != nil {
		return fmt.Errorf("put expert: %w", err)
	}
	return nil
}

// ListEligible returns every expert in the category regardless of service status.
func (s *Store) ListEligible(ctx context.Context, categoryID domain.CategoryID) ([]models.Expert, error) {
	return s.ListExperts(ctx, models.ExpertFilter{CategoryID: categoryID})
}

func (s *Store) ListExperts(ctx context.Context, filter models.ExpertFilter) ([]models.Expert, error) {
	query := `SELECT id, name, category_id, in_service, gender, birth_date, work_unit,
		department, title, discipline, contact, internal FROM experts`
	var (
		where []string
		args  []any
	)
	if filter.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, string(filter.CategoryID))
	}
	if filter.InServiceOnly {
		where = append(where, "in_service = 1")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list experts: %w", err)
	}
	defer rows.Close()

	var out []models.Expert
	for rows.Next() {
		var (
			e                   models.Expert
			id, categoryID      string
			inService, internal int
			gender              int
		)
		if err := rows.Scan(&id, &e.Name, &categoryID, &inService, &gender, &e.BirthDate, &e.WorkUnit,
			&e.Department, &e.Title, &e.Discipline, &e.Contact, &internal); err != nil {
			return nil, fmt.Errorf("scan expert: %w", err)
		}
		e.ID = domain.ExpertKey(id)
		e.CategoryID = domain.CategoryID(categoryID)
		e.InService = inService == 1
		e.Internal = internal == 1
		e.Gender = models.Gender(gender)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experts: %w", err)
	}
	return out, nil
}

func (s *Store) Resolve(ctx context.Context, id domain.CategoryID) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, string(id)).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve category: %w", err)
	}
	return name, true, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []models.Category
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, models.Category{ID: domain.CategoryID(id), Name: name})
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
