package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestNew_PlaceholderFormat(t *testing.T) {
	tests := []struct {
		driver   string
		expected string
	}{
		{DriverSQLite, "SELECT value FROM settings WHERE key = ?"},
		{DriverPostgres, "SELECT value FROM settings WHERE key = $1"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			s := New(nil, tt.driver)
			query, args, err := s.qb.Select("value").From("settings").Where(squirrel.Eq{"key": "k"}).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, query)
			assert.Equal(t, []interface{}{"k"}, args)
		})
	}
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLStore_Users(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.UpsertUserSeen(ctx, 1, "Ali", "ali"))
	require.NoError(t, s.SetBanned(ctx, 1, true))

	// Seeing the user again refreshes names but keeps the ban
	require.NoError(t, s.UpsertUserSeen(ctx, 1, "Ali V.", "aliv"))
	banned, err := s.IsBanned(ctx, 1)
	require.NoError(t, err)
	assert.True(t, banned)

	users, err := s.ListUsers(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ali V.", users[0].FirstName)
	assert.Equal(t, "aliv", users[0].Username)

	require.NoError(t, s.SetBanned(ctx, 1, false))
	banned, err = s.IsBanned(ctx, 1)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestSQLStore_IsBanned_UnknownUser(t *testing.T) {
	banned, err := newTestStore(t).IsBanned(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestSQLStore_SetBanned_UnknownUser(t *testing.T) {
	err := newTestStore(t).SetBanned(context.Background(), 404, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSQLStore_Settings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	value, err := s.GetSetting(ctx, "maintenance_mode", "false")
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	require.NoError(t, s.SetSetting(ctx, "maintenance_mode", "true"))
	require.NoError(t, s.SetSetting(ctx, "maintenance_mode", "false"))
	value, err = s.GetSetting(ctx, "maintenance_mode", "")
	require.NoError(t, err)
	assert.Equal(t, "false", value)
}

func TestSQLStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	value, err := s.GetStat(ctx, StatSuccessfulDownloads)
	require.NoError(t, err)
	assert.Zero(t, value)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.IncrementStat(ctx, StatSuccessfulDownloads))
	}
	value, err = s.GetStat(ctx, StatSuccessfulDownloads)
	require.NoError(t, err)
	assert.Equal(t, int64(3), value)
}

func TestSQLStore_IncrementStat_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.IncrementStat(ctx, StatSuccessfulDownloads))
		}()
	}
	wg.Wait()

	value, err := s.GetStat(ctx, StatSuccessfulDownloads)
	require.NoError(t, err)
	assert.Equal(t, int64(20), value)
}

func TestSQLStore_CountsAndLists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Unix(1_700_000_000, 0)
	for i, id := range []int64{10, 20, 30} {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		require.NoError(t, s.UpsertUserSeen(ctx, id, "u", ""))
	}
	require.NoError(t, s.SetBanned(ctx, 20, true))

	counts, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserCounts{Total: 3, Banned: 1}, counts)

	ids, err := s.ListActiveUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 30}, ids)

	users, err := s.ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(30), users[0].ID)
	assert.Equal(t, int64(20), users[1].ID)
	assert.True(t, users[1].IsBanned)
	assert.Equal(t, base.Add(2*time.Hour).Unix(), users[0].Created().Unix())

	users, err = s.ListUsers(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(10), users[0].ID)
}

func TestSQLStore_CountUsers_Empty(t *testing.T) {
	counts, err := newTestStore(t).CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, UserCounts{}, counts)
}
