package gate

import (
	"context"
	"log/slog"
)

// Reason explains a rejected admission
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonMaintenance Reason = "maintenance"
	ReasonBanned      Reason = "banned"
)

// Decision is the outcome of an admission check
type Decision struct {
	Allowed bool
	Reason  Reason
}

// BanChecker answers whether a user is banned
type BanChecker interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// Keeper decides whether a requester may start a job
type Keeper struct {
	flags      *Flags
	bans       BanChecker
	operatorID int64
	logger     *slog.Logger
}

// NewKeeper creates a keeper. operatorID 0 disables the bypass.
func NewKeeper(flags *Flags, bans BanChecker, operatorID int64, logger *slog.Logger) *Keeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Keeper{
		flags:      flags,
		bans:       bans,
		operatorID: operatorID,
		logger:     logger.With("component", "gate"),
	}
}

// IsOperator reports whether userID is the configured operator
func (k *Keeper) IsOperator(userID int64) bool {
	return k.operatorID != 0 && userID == k.operatorID
}

// Admit checks maintenance first, then the ban list. A failing ban lookup
// admits the user and is logged.
func (k *Keeper) Admit(ctx context.Context, userID int64) Decision {
	if k.IsOperator(userID) {
		return Decision{Allowed: true}
	}
	if k.flags.Maintenance() {
		return Decision{Reason: ReasonMaintenance}
	}
	if k.bans == nil {
		return Decision{Allowed: true}
	}
	banned, err := k.bans.IsBanned(ctx, userID)
	if err != nil {
		k.logger.Warn("ban lookup failed, admitting", "user_id", userID, "error", err)
		return Decision{Allowed: true}
	}
	if banned {
		return Decision{Reason: ReasonBanned}
	}
	return Decision{Allowed: true}
}
