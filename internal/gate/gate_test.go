package gate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBans struct {
	banned map[int64]bool
	err    error
	calls  int
}

func (f *fakeBans) IsBanned(_ context.Context, userID int64) (bool, error) {
	f.calls++
	return f.banned[userID], f.err
}

type fakeSource struct {
	on  bool
	err error
}

func (f fakeSource) MaintenanceMode(context.Context) (bool, error) {
	return f.on, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeeper_Admit(t *testing.T) {
	const operator = 42

	tests := []struct {
		name        string
		maintenance bool
		banned      map[int64]bool
		banErr      error
		userID      int64
		want        Decision
	}{
		{name: "open", userID: 1, want: Decision{Allowed: true}},
		{name: "maintenance", maintenance: true, userID: 1, want: Decision{Reason: ReasonMaintenance}},
		{name: "banned", banned: map[int64]bool{1: true}, userID: 1, want: Decision{Reason: ReasonBanned}},
		{name: "maintenance wins over ban", maintenance: true, banned: map[int64]bool{1: true}, userID: 1, want: Decision{Reason: ReasonMaintenance}},
		{name: "operator bypasses maintenance", maintenance: true, userID: operator, want: Decision{Allowed: true}},
		{name: "operator bypasses ban", banned: map[int64]bool{operator: true}, userID: operator, want: Decision{Allowed: true}},
		{name: "lookup error admits", banErr: errors.New("db down"), userID: 1, want: Decision{Allowed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := NewFlags()
			flags.SetMaintenance(tt.maintenance)
			k := NewKeeper(flags, &fakeBans{banned: tt.banned, err: tt.banErr}, operator, quietLogger())

			assert.Equal(t, tt.want, k.Admit(context.Background(), tt.userID))
		})
	}
}

func TestKeeper_OperatorZeroDisablesBypass(t *testing.T) {
	flags := NewFlags()
	flags.SetMaintenance(true)
	k := NewKeeper(flags, nil, 0, quietLogger())

	assert.False(t, k.IsOperator(0))
	assert.Equal(t, ReasonMaintenance, k.Admit(context.Background(), 0).Reason)
}

func TestFlags_Reload(t *testing.T) {
	flags := NewFlags()

	require.NoError(t, flags.Reload(context.Background(), fakeSource{on: true}))
	assert.True(t, flags.Maintenance())

	err := flags.Reload(context.Background(), fakeSource{err: errors.New("boom")})
	require.Error(t, err)
	assert.True(t, flags.Maintenance(), "failed reload must keep the previous value")

	require.NoError(t, flags.Reload(context.Background(), fakeSource{on: false}))
	assert.False(t, flags.Maintenance())
}

func TestFlags_ConcurrentReadersSeeWrite(t *testing.T) {
	flags := NewFlags()
	flags.SetMaintenance(true)

	var wg sync.WaitGroup
	results := make([]bool, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = flags.Maintenance()
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !got {
			t.Errorf("reader %d saw stale flag", i)
		}
	}
}
