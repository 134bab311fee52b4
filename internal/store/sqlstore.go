package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	// ErrUserNotFound is returned when updating a user that never wrote to the bot
	ErrUserNotFound = errors.New("user not found")
	// ErrUnsupportedDriver is returned by Open for anything but sqlite and postgres
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// User is a row of the users table
type User struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	Username  string `db:"username"`
	IsBanned  bool   `db:"is_banned"`
	CreatedAt int64  `db:"created_at"`
}

// Created returns the first-seen time
func (u User) Created() time.Time {
	return time.Unix(u.CreatedAt, 0)
}

// UserCounts holds the totals shown in /stats
type UserCounts struct {
	Total  int64 `db:"total"`
	Banned int64 `db:"banned"`
}

// SQLStore implements the persistence operations with sqlx and squirrel.
// It is safe for concurrent use.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	qb     squirrel.StatementBuilderType
	now    func() time.Time
}

// Open connects to the database and creates missing tables
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "postgresql" {
		driver = DriverPostgres
	}
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY and
		// keeps :memory: databases alive across calls
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := New(db, driver)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection
func New(db *sqlx.DB, driver string) *SQLStore {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if driver == DriverPostgres {
		format = squirrel.Dollar
	}
	return &SQLStore{
		db:     db,
		driver: driver,
		qb:     squirrel.StatementBuilder.PlaceholderFormat(format),
		now:    time.Now,
	}
}

// Migrate creates the tables if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the underlying connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Driver returns the driver name
func (s *SQLStore) Driver() string {
	return s.driver
}

// UpsertUserSeen records a user, refreshing the name fields of known ones.
// The ban flag and first-seen time are never touched.
func (s *SQLStore) UpsertUserSeen(ctx context.Context, id int64, firstName, username string) error {
	query := s.qb.Insert(TableUsers).
		Columns("id", "first_name", "username", "is_banned", "created_at").
		Values(id, firstName, username, false, s.now().Unix()).
		Suffix("ON CONFLICT (id) DO UPDATE SET first_name = excluded.first_name, username = excluded.username")

	return s.exec(ctx, query)
}

// IsBanned reports the ban flag; unknown users are not banned
func (s *SQLStore) IsBanned(ctx context.Context, id int64) (bool, error) {
	sqlQuery, args, err := s.qb.Select("is_banned").
		From(TableUsers).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var banned bool
	err = s.db.GetContext(ctx, &banned, sqlQuery, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get ban flag: %w", err)
	}
	return banned, nil
}

// SetBanned sets the ban flag of a known user
func (s *SQLStore) SetBanned(ctx context.Context, id int64, banned bool) error {
	sqlQuery, args, err := s.qb.Update(TableUsers).
		Set("is_banned", banned).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return fmt.Errorf("set ban flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set ban flag: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return nil
}

// GetSetting returns the stored value or def when the key is absent
func (s *SQLStore) GetSetting(ctx context.Context, key, def string) (string, error) {
	sqlQuery, args, err := s.qb.Select("value").
		From(TableSettings).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return def, fmt.Errorf("build query: %w", err)
	}

	var value string
	err = s.db.GetContext(ctx, &value, sqlQuery, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a value, replacing any previous one
func (s *SQLStore) SetSetting(ctx context.Context, key, value string) error {
	query := s.qb.Insert(TableSettings).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value")

	return s.exec(ctx, query)
}

// IncrementStat adds one to a counter, creating it at 1
func (s *SQLStore) IncrementStat(ctx context.Context, key string) error {
	query := s.qb.Insert(TableStats).
		Columns("key", "value").
		Values(key, 1).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = stats.value + 1")

	return s.exec(ctx, query)
}

// GetStat returns a counter, zero when it was never incremented
func (s *SQLStore) GetStat(ctx context.Context, key string) (int64, error) {
	sqlQuery, args, err := s.qb.Select("value").
		From(TableStats).
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var value int64
	err = s.db.GetContext(ctx, &value, sqlQuery, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get stat %s: %w", key, err)
	}
	return value, nil
}

// CountUsers returns total and banned user counts
func (s *SQLStore) CountUsers(ctx context.Context) (UserCounts, error) {
	sqlQuery, args, err := s.qb.
		Select("COUNT(*) AS total", "COALESCE(SUM(CASE WHEN is_banned THEN 1 ELSE 0 END), 0) AS banned").
		From(TableUsers).
		ToSql()
	if err != nil {
		return UserCounts{}, fmt.Errorf("build query: %w", err)
	}

	var counts UserCounts
	if err := s.db.GetContext(ctx, &counts, sqlQuery, args...); err != nil {
		return UserCounts{}, fmt.Errorf("count users: %w", err)
	}
	return counts, nil
}

// ListActiveUserIDs returns the ids of every user that is not banned
func (s *SQLStore) ListActiveUserIDs(ctx context.Context) ([]int64, error) {
	sqlQuery, args, err := s.qb.Select("id").
		From(TableUsers).
		Where(squirrel.Eq{"is_banned": false}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	return ids, nil
}

// ListUsers returns users ordered by first-seen time, newest first
func (s *SQLStore) ListUsers(ctx context.Context, limit, offset uint64) ([]User, error) {
	query := s.qb.Select("id", "first_name", "username", "is_banned", "created_at").
		From(TableUsers).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var users []User
	if err := s.db.SelectContext(ctx, &users, sqlQuery, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *SQLStore) exec(ctx context.Context, query squirrel.Sqlizer) error {
	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}
