package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"kitchen-relay/internal/microservices/backend/models"
)

const uniqueViolation = "23505"

type TableRepositoryInterface interface {
	ListTables(ctx context.Context, tenant string) ([]models.Table, error)
	InsertTable(ctx context.Context, t models.Table) error
	UpdateTable(ctx context.Context, tenant, name string, p models.TablePatch) (models.Table, error)
	DeleteTable(ctx context.Context, tenant, name string) error
}

type TableRepository struct {
	db *sql.DB
}

func NewTableRepository(db *sql.DB) TableRepositoryInterface {
	return &TableRepository{db: db}
}

func (tr *TableRepository) ListTables(ctx context.Context, tenant string) ([]models.Table, error) {
	rows, err := tr.db.QueryContext(ctx, `
		SELECT name, tenant_id, x, y, width, height
		FROM tables
		WHERE tenant_id = $1
		ORDER BY name
	`, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]models.Table, 0)
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.Name, &t.TenantID, &t.X, &t.Y, &t.Width, &t.Height); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (tr *TableRepository) InsertTable(ctx context.Context, t models.Table) error {
	_, err := tr.db.ExecContext(ctx, `
		INSERT INTO tables (tenant_id, name, x, y, width, height)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, t.TenantID, t.Name, t.X, t.Y, t.Width, t.Height)
	if isUniqueViolation(err) {
		return fmt.Errorf("table %s: %w", t.Name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert table: %w", err)
	}
	return nil
}

func (tr *TableRepository) UpdateTable(ctx context.Context, tenant, name string, p models.TablePatch) (models.Table, error) {
	var t models.Table
	err := tr.db.QueryRowContext(ctx, `
		UPDATE tables SET
		    x      = COALESCE($3, x),
		    y      = COALESCE($4, y),
		    width  = COALESCE($5, width),
		    height = COALESCE($6, height)
		WHERE tenant_id = $1 AND name = $2
		RETURNING name, tenant_id, x, y, width, height
	`, tenant, name, p.X, p.Y, p.Width, p.Height).Scan(&t.Name, &t.TenantID, &t.X, &t.Y, &t.Width, &t.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Table{}, fmt.Errorf("table %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return models.Table{}, fmt.Errorf("failed to update table: %w", err)
	}
	return t, nil
}

func (tr *TableRepository) DeleteTable(ctx context.Context, tenant, name string) error {
	res, err := tr.db.ExecContext(ctx, `DELETE FROM tables WHERE tenant_id = $1 AND name = $2`, tenant, name)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("table %s: %w", name, ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
