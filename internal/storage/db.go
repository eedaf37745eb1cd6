package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/common"
	"expensetracker/internal/models"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// NewDB opens a SQLite database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	return Open(context.Background(), DriverSQLite, path)
}

// Open connects to the given driver and runs migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, unavailable("open database", err)
	}
	if driver == DriverSQLite {
		// one connection keeps :memory: databases a single store and
		// serialises writers the way SQLite expects
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, unavailable("ping database", err)
	}

	if err := d.migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{conn: conn, dialect: d}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the store is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return unavailable("ping database", err)
	}
	return nil
}

// AddExpense inserts a new expense owned by userID.
func (db *DB) AddExpense(ctx context.Context, date, category, description string, amount float64, userID int64) (*models.Expense, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		"INSERT INTO expenses (date, category, description, amount, user_id) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		date, category, description, amount, userID,
	).Scan(&id)
	if err != nil {
		return nil, unavailable("insert expense", err)
	}
	return &models.Expense{
		ID:          id,
		Date:        date,
		Category:    category,
		Description: description,
		Amount:      amount,
		UserID:      userID,
	}, nil
}

// GetExpenses returns all expenses of a user in insertion order.
func (db *DB) GetExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx, db.dialect.rebind(
		"SELECT id, date, category, description, amount, user_id FROM expenses WHERE user_id = ? ORDER BY id"),
		userID,
	)
	if err != nil {
		return nil, unavailable("query expenses", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Category, &e.Description, &e.Amount, &e.UserID); err != nil {
			return nil, unavailable("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate expenses", err)
	}
	return expenses, nil
}

// DeleteExpense removes the expense only if userID owns it. It reports
// whether a row was deleted; no match is not an error.
func (db *DB) DeleteExpense(ctx context.Context, expenseID, userID int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		"DELETE FROM expenses WHERE id = ? AND user_id = ?"),
		expenseID, userID,
	)
	if err != nil {
		return false, unavailable("delete expense", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, unavailable("delete expense", err)
	}
	return n > 0, nil
}

// AddUser hashes password and creates the user.
func (db *DB) AddUser(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return db.CreateUser(ctx, username, hash)
}

// CreateUser creates a new user with the given username and password hash.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		"INSERT INTO users (username, password_hash) VALUES (?, ?) RETURNING id"),
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		if db.dialect.isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %q: %w", username, common.ErrDuplicateUser)
		}
		return nil, unavailable("insert user", err)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?"),
		id,
	)
	return scanUser(row)
}

// GetUser retrieves a user by username.
func (db *DB) GetUser(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx, db.dialect.rebind(
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?"),
		username,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, unavailable("query user", err)
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, unavailable("count users", err)
	}
	return count, nil
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)"),
		token, userID, expiresAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return unavailable("insert session", err)
	}
	return nil
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(ctx, token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
// Missing and expired sessions both yield common.ErrNotFound.
func (db *DB) ValidateSessionWithInfo(ctx context.Context, token string) (*models.SessionInfo, error) {
	row := db.conn.QueryRowContext(ctx, db.dialect.rebind(`
		SELECT u.id, u.username, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`), token, time.Now().UTC())

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, unavailable("query session", err)
	}
	return &models.SessionInfo{
		Token:        token,
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?"),
		time.Now().UTC(), newExpiresAt.UTC(), token,
	)
	if err != nil {
		return unavailable("renew session", err)
	}
	return nil
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := db.conn.ExecContext(ctx, db.dialect.rebind("DELETE FROM sessions WHERE token = ?"), token)
	if err != nil {
		return unavailable("delete session", err)
	}
	return nil
}

// CleanExpiredSessions removes all expired sessions and returns how many were removed.
func (db *DB) CleanExpiredSessions(ctx context.Context) (int64, error) {
	result, err := db.conn.ExecContext(ctx, db.dialect.rebind(
		"DELETE FROM sessions WHERE expires_at <= ?"), time.Now().UTC())
	if err != nil {
		return 0, unavailable("clean sessions", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, unavailable("clean sessions", err)
	}
	return n, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStorageUnavailable, err)
}
