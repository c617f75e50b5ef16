package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/jask/calendarspent/internal/config"
	"github.com/jask/calendarspent/internal/remote"
	"github.com/jask/calendarspent/internal/service"
	"github.com/jask/calendarspent/internal/session"
)

// tokenEnv may carry the bearer token instead of the login argument.
const tokenEnv = "CALENDARSPENT_TOKEN"

type loginCmd struct{}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "store the bearer token of your account" }
func (*loginCmd) Usage() string {
	return `login [<token>]

  Stores the token issued by the backend. Without an argument the token is
  read from $CALENDARSPENT_TOKEN.
`
}
func (*loginCmd) SetFlags(f *flag.FlagSet) {}

func (c *loginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	token := f.Arg(0)
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	return run(ctx, func(a *app) error {
		sess, err := session.Parse(token)
		if err != nil {
			return err
		}
		if err := sess.Check(time.Now()); err != nil {
			return err
		}
		if err := session.Save(a.secret, sess); err != nil {
			return err
		}
		msg := "signed in as " + sess.UserID
		if !sess.ExpiresAt.IsZero() {
			msg += dimStyle.Render(" until " + sess.ExpiresAt.Local().Format(time.DateTime))
		}
		fmt.Println(okStyle.Render(msg))
		return nil
	})
}

type logoutCmd struct{ purge bool }

func (*logoutCmd) Name() string     { return "logout" }
func (*logoutCmd) Synopsis() string { return "forget the stored token" }
func (*logoutCmd) Usage() string    { return "logout [-purge]\n" }

func (c *logoutCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.purge, "purge", false, "Also delete your data from the cloud database.")
}

func (c *logoutCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if c.purge {
			if a.remote == nil {
				return service.ErrNoRemote
			}
			sess, err := a.session()
			if err != nil {
				return err
			}
			if err := a.remote.DeleteUser(ctx, sess.UserID); err != nil {
				return err
			}
			fmt.Println(warnStyle.Render("deleted cloud data of " + sess.UserID))
		}
		if err := session.Clear(a.secret); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("signed out"))
		return nil
	})
}

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "merge local data with the cloud" }
func (*syncCmd) Usage() string {
	return `sync

  Pulls the cloud copy, keeps the newest version of every record and
  pushes what the cloud is missing.
`
}
func (*syncCmd) SetFlags(f *flag.FlagSet) {}

func (*syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		sess, err := a.session()
		if err != nil {
			return err
		}
		stats, err := a.engine.Sync(ctx, sess)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", okStyle.Render("synced"),
			dimStyle.Render(fmt.Sprintf("%d pulled, %d pushed", stats.Pulled, stats.Pushed)))
		return a.engine.Flush(ctx)
	})
}

type calendarCmd struct{}

func (*calendarCmd) Name() string     { return "calendar" }
func (*calendarCmd) Synopsis() string { return "connect, sync or disconnect the calendar" }
func (*calendarCmd) Usage() string {
	return `calendar connect|sync|disconnect

  connect prints the consent URL to open in a browser. sync writes one
  event per day for the four weeks around today.
`
}
func (*calendarCmd) SetFlags(f *flag.FlagSet) {}

func (c *calendarCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	action := strings.ToLower(f.Arg(0))
	return run(ctx, func(a *app) error {
		if a.calendar == nil {
			return service.ErrNoCalendar
		}
		sess, err := a.session()
		if err != nil {
			return err
		}
		enabled := true
		switch action {
		case "connect":
			url, err := a.calendar.Connect(ctx, sess)
			if err != nil {
				return err
			}
			fmt.Println("Open this URL to grant calendar access:")
			fmt.Println(titleStyle.Render(url))
		case "disconnect":
			if err := a.calendar.Disconnect(ctx, sess); err != nil {
				return err
			}
			enabled = false
			fmt.Println(okStyle.Render("calendar disconnected"))
		case "sync":
			res, err := a.engine.SyncCalendar(ctx, sess)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\n", okStyle.Render("calendar synced"),
				dimStyle.Render(fmt.Sprintf("%d days", res.Synced)))
		default:
			return fmt.Errorf("unknown calendar action %q", action)
		}
		if _, err := a.engine.UpdateSettings(patchCalendar(enabled)); err != nil {
			return err
		}
		return a.commit(ctx)
	})
}

type remoteMigrateCmd struct{ dsn string }

func (*remoteMigrateCmd) Name() string     { return "remote-migrate" }
func (*remoteMigrateCmd) Synopsis() string { return "create or upgrade the cloud database schema" }
func (*remoteMigrateCmd) Usage() string    { return "remote-migrate [-dsn <postgres url>]\n" }

func (c *remoteMigrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dsn, "dsn", "", "Postgres URL. Defaults to sync.dsn from the config.")
}

func (c *remoteMigrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	dsn := c.dsn
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		dsn = cfg.Sync.DSN
	}
	if dsn == "" {
		fail(errors.New("no dsn: pass -dsn or set sync.dsn"))
		return subcommands.ExitUsageError
	}
	if err := remote.RunMigrations(dsn); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Println(okStyle.Render("cloud schema up to date"))
	return subcommands.ExitSuccess
}
