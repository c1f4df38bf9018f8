package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

const uniqueViolation = "23505"

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var _ repository.Store = (*Repository)(nil)

// Ping checks the pool.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases pooled connections.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	const query = `INSERT INTO users (id, name, email, password_hash, profile_image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash,
		nullableText(user.ProfileImageURL), user.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT id::text, name, email, password_hash, COALESCE(profile_image_url, ''), created_at
		FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, repository.ErrNotFound
	}
	const query = `SELECT id::text, name, email, password_hash, COALESCE(profile_image_url, ''), created_at
		FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.ProfileImageURL, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// CreateTransaction inserts into the table for txn.Kind.
func (r *Repository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	table, err := tableFor(txn.Kind)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + table + ` (id, user_id, title, amount, category, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`
	_, err = r.pool.Exec(ctx, query, txn.ID, txn.OwnerID, txn.Title, txn.Amount.String(), txn.Category,
		txn.Date.Time(), txn.CreatedAt, txn.UpdatedAt)
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
	items := make([]domain.Transaction, 0)
	if !validID(ownerID) {
		return items, nil
	}
	query := `SELECT ` + transactionColumns + ` FROM ` + table + `
		WHERE user_id = $1 ORDER BY date DESC, created_at DESC`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		txn, err := scanTransaction(rows, kind)
		if err != nil {
			return nil, err
		}
		items = append(items, *txn)
	}
	return items, rows.Err()
}

// UpdateTransaction rewrites the editable fields with a single owner-filtered UPDATE ... RETURNING.
func (r *Repository) UpdateTransaction(ctx context.Context, kind domain.Kind, ownerID, id string, fields domain.TransactionFields) (*domain.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if !validID(id) || !validID(ownerID) {
		return nil, repository.ErrNotFound
	}
	query := `UPDATE ` + table + `
		SET title = $1, amount = $2::numeric, category = $3, date = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
		RETURNING ` + transactionColumns
	row := r.pool.QueryRow(ctx, query, fields.Title, fields.Amount.String(), fields.Category,
		fields.Date.Time(), time.Now().UTC(), id, ownerID)
	return scanTransactionRow(row, kind)
}

// DeleteTransaction removes the record with a single owner-filtered DELETE ... RETURNING.
func (r *Repository) DeleteTransaction(ctx context.Context, kind domain.Kind, ownerID, id string) (*domain.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	if !validID(id) || !validID(ownerID) {
		return nil, repository.ErrNotFound
	}
	query := `DELETE FROM ` + table + ` WHERE id = $1 AND user_id = $2 RETURNING ` + transactionColumns
	return scanTransactionRow(r.pool.QueryRow(ctx, query, id, ownerID), kind)
}

// SumTransactions totals the owner's amounts in the database.
func (r *Repository) SumTransactions(ctx context.Context, kind domain.Kind, ownerID string) (domain.Amount, error) {
	table, err := tableFor(kind)
	if err != nil {
		return domain.Amount{}, err
	}
	if !validID(ownerID) {
		return domain.Amount{}, nil
	}
	query := `SELECT COALESCE(SUM(amount), 0)::text FROM ` + table + ` WHERE user_id = $1`
	var raw string
	if err := r.pool.QueryRow(ctx, query, ownerID).Scan(&raw); err != nil {
		return domain.Amount{}, err
	}
	return domain.ParseStoredAmount(raw)
}

// SumByCategory groups the owner's amounts by category.
func (r *Repository) SumByCategory(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.CategoryTotal, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	totals := make([]domain.CategoryTotal, 0)
	if !validID(ownerID) {
		return totals, nil
	}
	query := `SELECT category, SUM(amount)::text, COUNT(1) FROM ` + table + `
		WHERE user_id = $1 GROUP BY category ORDER BY SUM(amount) DESC, category`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			item  domain.CategoryTotal
			raw   string
			count int64
		)
		if err := rows.Scan(&item.Category, &raw, &count); err != nil {
			return nil, err
		}
		if item.Total, err = domain.ParseStoredAmount(raw); err != nil {
			return nil, err
		}
		item.Count = int(count)
		totals = append(totals, item)
	}
	return totals, rows.Err()
}

const transactionColumns = `id::text, user_id::text, title, amount::text, category, date, created_at, updated_at`

func scanTransaction(row pgx.Row, kind domain.Kind) (*domain.Transaction, error) {
	var (
		txn    domain.Transaction
		amount string
		date   time.Time
	)
	if err := row.Scan(&txn.ID, &txn.OwnerID, &txn.Title, &amount, &txn.Category, &date, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := domain.ParseStoredAmount(amount)
	if err != nil {
		return nil, err
	}
	txn.Kind = kind
	txn.Amount = parsed
	txn.Date = domain.DateOf(date)
	txn.CreatedAt = txn.CreatedAt.UTC()
	txn.UpdatedAt = txn.UpdatedAt.UTC()
	return &txn, nil
}

func scanTransactionRow(row pgx.Row, kind domain.Kind) (*domain.Transaction, error) {
	txn, err := scanTransaction(row, kind)
	if errors.Is(err, pgx.ErrNoRows) {
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

// validID guards uuid columns so malformed ids read as missing rows instead of 22P02 errors.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullableText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
