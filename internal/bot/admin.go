package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ytget/yt-bot/internal/download"
	"github.com/ytget/yt-bot/internal/store"
)

const operatorUsage = `Operator commands:
/maintenance [on|off]
/search [on|off]
/reload
/ban <user-id>
/unban <user-id>
/stats
/broadcast <text>
/jobs
/cancel <job-id>`

// handleOperatorCommand runs an operator command and reports whether msg
// was one
func (h *Handler) handleOperatorCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) bool {
	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "maintenance":
		h.cmdMaintenance(ctx, chatID, args)
	case "search":
		h.cmdSearch(ctx, chatID, args)
	case "reload":
		h.cmdReload(ctx, chatID)
	case "ban":
		h.cmdBan(ctx, chatID, args, true)
	case "unban":
		h.cmdBan(ctx, chatID, args, false)
	case "stats":
		h.cmdStats(ctx, chatID)
	case "broadcast":
		h.cmdBroadcast(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))
	case "jobs":
		h.cmdJobs(ctx, chatID)
	case "cancel":
		h.cmdCancel(ctx, chatID, args)
	case "admin":
		h.send(ctx, chatID, operatorUsage)
	default:
		return false
	}
	return true
}

func (h *Handler) cmdMaintenance(ctx context.Context, chatID int64, args []string) {
	on, err := parseSwitch(args, h.flags.Maintenance())
	if err != nil {
		h.send(ctx, chatID, "Usage: /maintenance [on|off]")
		return
	}
	if err := h.settings.SetMaintenanceMode(ctx, on); err != nil {
		h.logger.Error("failed to store maintenance mode", "error", err)
		h.send(ctx, chatID, "Failed to save maintenance mode: "+err.Error())
		return
	}
	if err := h.flags.Reload(ctx, h.settings); err != nil {
		h.logger.Warn("failed to reload flags", "error", err)
		h.flags.SetMaintenance(on)
	}
	h.logger.Info("maintenance mode changed", "on", on)
	h.send(ctx, chatID, "Maintenance mode: "+onOff(h.flags.Maintenance()))
}

func (h *Handler) cmdSearch(ctx context.Context, chatID int64, args []string) {
	on, err := parseSwitch(args, h.searchEnabled(ctx))
	if err != nil {
		h.send(ctx, chatID, "Usage: /search [on|off]")
		return
	}
	if err := h.settings.SetSearchEnabled(ctx, on); err != nil {
		h.logger.Error("failed to store search setting", "error", err)
		h.send(ctx, chatID, "Failed to save search setting: "+err.Error())
		return
	}
	h.send(ctx, chatID, "Search: "+onOff(on))
}

func (h *Handler) cmdReload(ctx context.Context, chatID int64) {
	if err := h.flags.Reload(ctx, h.settings); err != nil {
		h.logger.Warn("failed to reload flags", "error", err)
		h.send(ctx, chatID, "Reload failed: "+err.Error())
		return
	}
	h.send(ctx, chatID, "Settings reloaded. Maintenance mode: "+onOff(h.flags.Maintenance()))
}

func (h *Handler) cmdBan(ctx context.Context, chatID int64, args []string, banned bool) {
	verb := "ban"
	if !banned {
		verb = "unban"
	}
	if len(args) != 1 {
		h.send(ctx, chatID, fmt.Sprintf("Usage: /%s <user-id>", verb))
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(ctx, chatID, fmt.Sprintf("Invalid user id %q.", args[0]))
		return
	}

	err = h.users.SetBanned(ctx, userID, banned)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		h.send(ctx, chatID, fmt.Sprintf("User %d not found.", userID))
	case err != nil:
		h.logger.Error("failed to change ban", "user_id", userID, "banned", banned, "error", err)
		h.send(ctx, chatID, fmt.Sprintf("Failed to %s user %d: %v", verb, userID, err))
	case banned:
		h.logger.Info("user banned", "user_id", userID)
		h.send(ctx, chatID, fmt.Sprintf("User %d banned.", userID))
	default:
		h.logger.Info("user unbanned", "user_id", userID)
		h.send(ctx, chatID, fmt.Sprintf("User %d unbanned.", userID))
	}
}

func (h *Handler) cmdStats(ctx context.Context, chatID int64) {
	counts, err := h.users.CountUsers(ctx)
	if err != nil {
		h.send(ctx, chatID, "Failed to count users: "+err.Error())
		return
	}
	completed, err := h.users.GetStat(ctx, store.StatSuccessfulDownloads)
	if err != nil {
		h.send(ctx, chatID, "Failed to read stats: "+err.Error())
		return
	}

	queued, running := 0, 0
	for _, j := range h.jobs.Active() {
		if j.State.IsActive() {
			running++
		} else {
			queued++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Users: %d (banned: %d)\n", counts.Total, counts.Banned)
	fmt.Fprintf(&b, "Completed downloads: %d\n", completed)
	fmt.Fprintf(&b, "Jobs: %d running, %d queued\n", running, queued)
	fmt.Fprintf(&b, "Maintenance: %s\n", onOff(h.flags.Maintenance()))
	fmt.Fprintf(&b, "Search: %s", onOff(h.searchEnabled(ctx)))
	h.send(ctx, chatID, b.String())
}

func (h *Handler) cmdBroadcast(ctx context.Context, chatID int64, text string) {
	if text == "" {
		h.send(ctx, chatID, "Usage: /broadcast <text>")
		return
	}
	recipients, err := h.users.ListActiveUserIDs(ctx)
	if err != nil {
		h.send(ctx, chatID, "Failed to list users: "+err.Error())
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("Broadcasting to %d users...", len(recipients)))
	h.spawn(func() {
		sent, failed := h.broadcast(ctx, recipients, text)
		h.logger.Info("broadcast finished", "sent", sent, "failed", failed)
		h.send(context.WithoutCancel(ctx), chatID, fmt.Sprintf("Broadcast finished: %d delivered, %d failed.", sent, failed))
	})
}

// broadcast sends text to every recipient, one message per tick
func (h *Handler) broadcast(ctx context.Context, recipients []int64, text string) (sent, failed int) {
	ticker := time.NewTicker(h.pace)
	defer ticker.Stop()

	for i, id := range recipients {
		if i > 0 {
			select {
			case <-ctx.Done():
				return sent, failed + len(recipients) - i
			case <-ticker.C:
			}
		}
		if err := h.msg.SendText(ctx, id, text); err != nil {
			h.logger.Debug("broadcast delivery failed", "user_id", id, "error", err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed
}

func (h *Handler) cmdJobs(ctx context.Context, chatID int64) {
	active := h.jobs.Active()
	if len(active) == 0 {
		h.send(ctx, chatID, "No active jobs.")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Active jobs (%d):", len(active))
	now := time.Now()
	for _, j := range active {
		fmt.Fprintf(&b, "\n%s user=%d %s %s age=%s",
			j.ID, j.UserID, j.State, j.Target.Kind, now.Sub(j.CreatedAt).Round(time.Second))
	}
	h.send(ctx, chatID, b.String())
}

func (h *Handler) cmdCancel(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.send(ctx, chatID, "Usage: /cancel <job-id>")
		return
	}
	if err := h.jobs.Cancel(args[0]); err != nil {
		if errors.Is(err, download.ErrJobNotFound) {
			h.send(ctx, chatID, fmt.Sprintf("Job %s not found.", args[0]))
			return
		}
		h.send(ctx, chatID, "Cancel failed: "+err.Error())
		return
	}
	h.send(ctx, chatID, fmt.Sprintf("Job %s canceled.", args[0]))
}

// parseSwitch reads on/off from args, toggling current when absent
func parseSwitch(args []string, current bool) (bool, error) {
	if len(args) == 0 {
		return !current, nil
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid switch %q", args[0])
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
