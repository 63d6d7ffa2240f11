package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ukydev/motolog/internal/models"
)

const createTable = `CREATE TABLE IF NOT EXISTS maintenance_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	cost REAL NOT NULL,
	serviceDate TEXT NOT NULL,
	serviceOdometer INTEGER NOT NULL,
	intervalDistance INTEGER NOT NULL,
	intervalMonths INTEGER NOT NULL
)`

const selectColumns = "SELECT id, name, cost, serviceDate, serviceOdometer, intervalDistance, intervalMonths FROM maintenance_items"

// SQLiteCollection stores records in the maintenance_items table. Every
// mutation is its own statement and commits immediately.
type SQLiteCollection struct {
	db         *sql.DB
	findAll    *sql.Stmt
	findByID   *sql.Stmt
	insertItem *sql.Stmt
	updateItem *sql.Stmt
	deleteItem *sql.Stmt
}

// OpenSQLite opens (or creates) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteCollection, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open error: %w", err)
	}
	c, err := NewSQLiteCollection(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteCollection creates the table if absent and prepares statements.
func NewSQLiteCollection(ctx context.Context, db *sql.DB) (*SQLiteCollection, error) {
	if _, err := db.ExecContext(ctx, createTable); err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}

	c := &SQLiteCollection{db: db}
	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&c.findAll, selectColumns + " ORDER BY id"},
		{&c.findByID, selectColumns + " WHERE id = ?"},
		{&c.insertItem, "INSERT INTO maintenance_items (name, cost, serviceDate, serviceOdometer, intervalDistance, intervalMonths)" +
			" VALUES (?, ?, ?, ?, ?, ?)"},
		{&c.updateItem, "UPDATE maintenance_items SET name = ?, cost = ?, serviceDate = ?, serviceOdometer = ?," +
			" intervalDistance = ?, intervalMonths = ? WHERE id = ?"},
		{&c.deleteItem, "DELETE FROM maintenance_items WHERE id = ?"},
	}
	for _, s := range stmts {
		stmt, err := db.PrepareContext(ctx, s.query)
		if err != nil {
			c.closeStatements()
			return nil, fmt.Errorf("prepare %q: %w", s.query, err)
		}
		*s.dst = stmt
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (models.Maintenance, error) {
	var m models.Maintenance
	err := row.Scan(&m.ID, &m.Name, &m.Cost, &m.ServiceDate,
		&m.ServiceOdometer, &m.IntervalDistance, &m.IntervalMonths)
	return m, err
}

func (c *SQLiteCollection) Insert(ctx context.Context, rec models.Maintenance) (int64, error) {
	res, err := c.insertItem.ExecContext(ctx, rec.Name, rec.Cost, rec.ServiceDate,
		rec.ServiceOdometer, rec.IntervalDistance, rec.IntervalMonths)
	if err != nil {
		return 0, fmt.Errorf("%w: insert: %v", models.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert id: %v", models.ErrStorage, err)
	}
	return id, nil
}

func (c *SQLiteCollection) FindAll(ctx context.Context) ([]models.Maintenance, error) {
	rows, err := c.findAll.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: select: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	items := []models.Maintenance{}
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", models.ErrStorage, err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", models.ErrStorage, err)
	}
	return items, nil
}

func (c *SQLiteCollection) FindByID(ctx context.Context, id int64) (*models.Maintenance, error) {
	m, err := scanItem(c.findByID.QueryRowContext(ctx, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, models.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: select %d: %v", models.ErrStorage, id, err)
	}
	return &m, nil
}

func (c *SQLiteCollection) Update(ctx context.Context, id int64, rec models.Maintenance) error {
	res, err := c.updateItem.ExecContext(ctx, rec.Name, rec.Cost, rec.ServiceDate,
		rec.ServiceOdometer, rec.IntervalDistance, rec.IntervalMonths, id)
	if err != nil {
		return fmt.Errorf("%w: update %d: %v", models.ErrStorage, id, err)
	}
	return affected(res, id)
}

func (c *SQLiteCollection) Delete(ctx context.Context, id int64) error {
	res, err := c.deleteItem.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: delete %d: %v", models.ErrStorage, id, err)
	}
	return affected(res, id)
}

func affected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected %d: %v", models.ErrStorage, id, err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Close releases the prepared statements and the database handle.
func (c *SQLiteCollection) Close() error {
	c.closeStatements()
	return c.db.Close()
}

func (c *SQLiteCollection) closeStatements() {
	for _, stmt := range []*sql.Stmt{c.findAll, c.findByID, c.insertItem, c.updateItem, c.deleteItem} {
		if stmt != nil {
			stmt.Close()
		}
	}
}
