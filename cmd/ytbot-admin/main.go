// Command ytbot-admin inspects and changes the bot database directly,
// without going through Telegram.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"

	"github.com/ytget/yt-bot/internal/config"
	"github.com/ytget/yt-bot/internal/store"
)

const AppName = "ytbot-admin"

const usage = `Usage: %s [flags] <command> [args]

Commands:
  stats                  user and download counters
  users                  list users
  ban <user-id>          ban a user
  unban <user-id>        lift a ban
  maintenance [on|off]   show or set maintenance mode
  search [on|off]        show or set search by title

Flags:
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type admin struct {
	db       *store.SQLStore
	settings *config.Settings
	out      io.Writer

	good func(a ...interface{}) string
	bad  func(a ...interface{}) string
	head func(a ...interface{}) string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	driver := fs.String("driver", "", "database driver, sqlite or postgres (default from DB_DRIVER)")
	dsn := fs.String("dsn", "", "database DSN (default from DB_DSN)")
	limit := fs.Uint64("limit", 50, "maximum rows for users")
	offset := fs.Uint64("offset", 0, "rows to skip for users")
	noColor := fs.Bool("no-color", false, "disable colored output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, usage, AppName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *noColor {
		color.NoColor = true
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	red := color.New(color.FgRed).SprintFunc()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, red("config:"), err)
		return 1
	}
	if *driver != "" {
		cfg.Database.Driver = *driver
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if err := cfg.ValidateDatabase(); err != nil {
		fmt.Fprintln(stderr, red("config:"), err)
		return 1
	}

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fmt.Fprintln(stderr, red("database:"), err)
		return 1
	}
	defer db.Close()

	a := &admin{
		db:       db,
		settings: config.NewSettings(db),
		out:      stdout,
		good:     color.New(color.FgGreen).SprintFunc(),
		bad:      red,
		head:     color.New(color.FgCyan, color.Bold).SprintFunc(),
	}

	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "stats":
		err = a.stats(ctx)
	case "users":
		err = a.users(ctx, *limit, *offset)
	case "ban":
		err = a.ban(ctx, cmdArgs, true)
	case "unban":
		err = a.ban(ctx, cmdArgs, false)
	case "maintenance":
		err = a.toggle(ctx, cmdArgs, "Maintenance mode", a.settings.MaintenanceMode, a.settings.SetMaintenanceMode)
	case "search":
		err = a.toggle(ctx, cmdArgs, "Search", a.settings.SearchEnabled, a.settings.SetSearchEnabled)
	default:
		fmt.Fprintf(stderr, "%s unknown command %q\n", red("error:"), cmd)
		fs.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, red("error:"), err)
		return 1
	}
	return 0
}

func (a *admin) stats(ctx context.Context) error {
	counts, err := a.db.CountUsers(ctx)
	if err != nil {
		return err
	}
	completed, err := a.db.GetStat(ctx, store.StatSuccessfulDownloads)
	if err != nil {
		return err
	}
	maintenance, err := a.settings.MaintenanceMode(ctx)
	if err != nil {
		return err
	}
	search, err := a.settings.SearchEnabled(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoFormatHeaders(false)
	table.AppendBulk([][]string{
		{"Users", strconv.FormatInt(counts.Total, 10)},
		{"Banned users", strconv.FormatInt(counts.Banned, 10)},
		{"Completed downloads", strconv.FormatInt(completed, 10)},
		{"Maintenance mode", onOff(maintenance)},
		{"Search", onOff(search)},
	})
	table.Render()
	return nil
}

func (a *admin) users(ctx context.Context, limit, offset uint64) error {
	users, err := a.db.ListUsers(ctx, limit, offset)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No users.")
		return nil
	}

	table := tablewriter.NewWriter(a.out)
	table.SetHeader([]string{"ID", "First name", "Username", "Banned", "First seen"})
	table.SetAutoFormatHeaders(false)
	table.SetRowLine(false)
	for _, u := range users {
		banned := ""
		if u.IsBanned {
			banned = "yes"
		}
		username := ""
		if u.Username != "" {
			username = "@" + u.Username
		}
		table.Append([]string{
			strconv.FormatInt(u.ID, 10),
			u.FirstName,
			username,
			banned,
			u.Created().UTC().Format(time.DateTime),
		})
	}
	table.Render()
	return nil
}

func (a *admin) ban(ctx context.Context, args []string, banned bool) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one user id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}
	if err := a.db.SetBanned(ctx, id, banned); err != nil {
		return err
	}
	if banned {
		fmt.Fprintf(a.out, "%s user %d banned\n", a.bad("✗"), id)
	} else {
		fmt.Fprintf(a.out, "%s user %d unbanned\n", a.good("✓"), id)
	}
	return nil
}

func (a *admin) toggle(ctx context.Context, args []string, name string,
	get func(context.Context) (bool, error), set func(context.Context, bool) error) error {
	if len(args) == 0 {
		on, err := get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: %s\n", a.head(name), onOff(on))
		return nil
	}

	var on bool
	switch args[0] {
	case "on":
		on = true
	case "off":
	default:
		return fmt.Errorf("expected on or off, got %q", args[0])
	}
	if err := set(ctx, on); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %s\n", a.good("✓"), a.head(name), onOff(on))
	return nil
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
