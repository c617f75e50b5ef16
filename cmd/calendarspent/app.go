package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jask/calendarspent/internal/calendar"
	"github.com/jask/calendarspent/internal/config"
	"github.com/jask/calendarspent/internal/database"
	"github.com/jask/calendarspent/internal/database/repository"
	"github.com/jask/calendarspent/internal/remote"
	"github.com/jask/calendarspent/internal/report"
	"github.com/jask/calendarspent/internal/secrets"
	"github.com/jask/calendarspent/internal/service"
	"github.com/jask/calendarspent/internal/session"
)

// Catppuccin Mocha, as in the terminal UI this tool grew out of.
const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorLavender lipgloss.Color = "#b4befe"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	dimStyle     = lipgloss.NewStyle().Foreground(colorOverlay1)
	metaStyle    = lipgloss.NewStyle().Foreground(colorSubtext0)
	amountStyle  = lipgloss.NewStyle().Foreground(colorPeach)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	errStyle     = lipgloss.NewStyle().Foreground(colorRed)
	recurStyle   = lipgloss.NewStyle().Foreground(colorLavender)
	skippedStyle = lipgloss.NewStyle().Foreground(colorOverlay1).Strikethrough(true)
)

// app is what a command runs against.
type app struct {
	cfg      config.Config
	engine   *service.Engine
	repo     *repository.RecordRepo
	remote   *remote.PostgresStore
	calendar *calendar.Client
	secret   *secrets.Store
	close    func()
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	closers := []func() error{db.Close}
	a := &app{cfg: cfg, repo: repository.NewRecordRepo(db)}

	opts := service.Options{
		Store:    a.repo,
		Location: cfg.UI.Location(),
	}
	if cfg.Sync.DSN != "" {
		pg, err := remote.Open(ctx, cfg.Sync.DSN)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("open remote: %w", err)
		}
		opts.Remote = pg
		a.remote = pg
		closers = append(closers, pg.Close)
	}
	if cfg.Calendar.FunctionsURL != "" {
		a.calendar = calendar.NewClient(cfg.Calendar.FunctionsURL)
		opts.Calendar = a.calendar
	}

	engine := service.New(opts)
	a.engine = engine
	a.close = func() {
		engine.Close()
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
	if err := engine.Load(ctx); err != nil {
		a.close()
		return nil, err
	}
	if a.secret, err = secrets.Default(); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// session returns the stored sign-in, or ErrNone.
func (a *app) session() (session.Session, error) {
	return session.Load(a.secret)
}

func (a *app) currency() string {
	if c := a.engine.Settings().Currency; c != "" {
		return c
	}
	return a.cfg.UI.Currency
}

func (a *app) money(d decimal.Decimal) string {
	return amountStyle.Render(report.FormatAmount(d, a.currency()))
}

// run opens the app, runs fn and turns errors into an exit status.
func run(ctx context.Context, fn func(a *app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()
	if err := fn(a); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func fail(err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, service.ErrValidation):
		msg = "invalid: " + strings.TrimPrefix(msg, service.ErrValidation.Error()+": ")
	case errors.Is(err, session.ErrNone):
		msg = "not signed in; run login first"
	}
	fmt.Fprintln(os.Stderr, errStyle.Render(msg))
}

func categoryName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}

// commit waits for the local write-behind queue and, with auto sync on,
// pushes the change to the cloud. Sync failures only warn.
func (a *app) commit(ctx context.Context) error {
	if err := a.engine.Flush(ctx); err != nil {
		return err
	}
	if !a.cfg.Sync.AutoSync || a.remote == nil {
		return nil
	}
	sess, err := a.session()
	if err != nil {
		return nil
	}
	if _, err := a.engine.Sync(ctx, sess); err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render("sync: "+err.Error()))
		return nil
	}
	return a.engine.Flush(ctx)
}
