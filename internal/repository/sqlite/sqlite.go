// Package sqlite stores users and transactions in a single SQLite file using the pure Go
// modernc driver. Amounts are kept as decimal text and summed in Go so totals stay exact.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

const driverName = "sqlite"

// Repository implements repository.Store on SQLite.
type Repository struct {
	db *sql.DB
}

var _ repository.Store = (*Repository)(nil)

// Open creates the database file if needed, applies migrations and returns a Repository.
func Open(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db}, nil
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the database handle.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, name, email, password_hash, profile_image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash,
		nullString(user.ProfileImageURL), user.CreatedAt.UnixNano())
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id, name, email, password_hash, profile_image_url, created_at FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, name, email, password_hash, profile_image_url, created_at FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u       domain.User
		image   sql.NullString
		created int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &image, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.ProfileImageURL = image.String
	u.CreatedAt = time.Unix(0, created).UTC()
	return &u, nil
}

// CreateTransaction inserts into the table selected by txn.Kind.
func (r *Repository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	table, err := tableFor(txn.Kind)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + table + ` (id, user_id, title, amount, category, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, txn.ID, txn.OwnerID, txn.Title, txn.Amount.String(), txn.Category,
		txn.Date.String(), txn.CreatedAt.UnixNano(), txn.UpdatedAt.UnixNano())
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// ListTransactions returns the owner's records, newest date first.
func (r *Repository) ListTransactions(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + transactionColumns + ` FROM ` + table + `
		WHERE user_id = ? ORDER BY date DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows, kind)
		if err != nil {
			return nil, err
		}
		items = append(items, *txn)
	}
	return items, rows.Err()
}

// UpdateTransaction rewrites the editable fields in one owner-filtered statement.
func (r *Repository) UpdateTransaction(ctx context.Context, kind domain.Kind, ownerID, id string, fields domain.TransactionFields) (*domain.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `UPDATE ` + table + ` SET title = ?, amount = ?, category = ?, date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING ` + transactionColumns
	row := r.db.QueryRowContext(ctx, query, fields.Title, fields.Amount.String(), fields.Category,
		fields.Date.String(), time.Now().UTC().UnixNano(), id, ownerID)
	return scanTransactionRow(row, kind)
}

// DeleteTransaction removes the record in one owner-filtered statement and returns it.
func (r *Repository) DeleteTransaction(ctx context.Context, kind domain.Kind, ownerID, id string) (*domain.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `DELETE FROM ` + table + ` WHERE id = ? AND user_id = ? RETURNING ` + transactionColumns
	return scanTransactionRow(r.db.QueryRowContext(ctx, query, id, ownerID), kind)
}

// SumTransactions totals the owner's amounts.
func (r *Repository) SumTransactions(ctx context.Context, kind domain.Kind, ownerID string) (domain.Amount, error) {
	var total domain.Amount
	err := r.eachAmount(ctx, kind, ownerID, func(_ string, amount domain.Amount) {
		total = total.Add(amount)
	})
	return total, err
}

// SumByCategory totals the owner's amounts per category.
func (r *Repository) SumByCategory(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.CategoryTotal, error) {
	index := make(map[string]int)
	totals := make([]domain.CategoryTotal, 0)
	err := r.eachAmount(ctx, kind, ownerID, func(category string, amount domain.Amount) {
		i, ok := index[category]
		if !ok {
			i = len(totals)
			index[category] = i
			totals = append(totals, domain.CategoryTotal{Category: category})
		}
		totals[i].Total = totals[i].Total.Add(amount)
		totals[i].Count++
	})
	if err != nil {
		return nil, err
	}
	repository.SortCategoryTotals(totals)
	return totals, nil
}

func (r *Repository) eachAmount(ctx context.Context, kind domain.Kind, ownerID string, fn func(category string, amount domain.Amount)) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	rows, err := r.db.QueryContext(ctx, `SELECT category, amount FROM `+table+` WHERE user_id = ?`, ownerID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var category, raw string
		if err := rows.Scan(&category, &raw); err != nil {
			return err
		}
		amount, err := domain.ParseStoredAmount(raw)
		if err != nil {
			return err
		}
		fn(category, amount)
	}
	return rows.Err()
}

const transactionColumns = `id, user_id, title, amount, category, date, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner, kind domain.Kind) (*domain.Transaction, error) {
	var (
		txn              domain.Transaction
		amount, date     string
		created, updated int64
	)
	if err := s.Scan(&txn.ID, &txn.OwnerID, &txn.Title, &amount, &txn.Category, &date, &created, &updated); err != nil {
		return nil, err
	}
	parsedAmount, err := domain.ParseStoredAmount(amount)
	if err != nil {
		return nil, err
	}
	parsedDate, err := domain.ParseDate(date)
	if err != nil {
		return nil, err
	}
	txn.Kind = kind
	txn.Amount = parsedAmount
	txn.Date = parsedDate
	txn.CreatedAt = time.Unix(0, created).UTC()
	txn.UpdatedAt = time.Unix(0, updated).UTC()
	return &txn, nil
}

func scanTransactionRow(row *sql.Row, kind domain.Kind) (*domain.Transaction, error) {
	txn, err := scanTransaction(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return txn, err
}

func tableFor(kind domain.Kind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown transaction kind %q", kind)
	}
	return kind.Plural(), nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
