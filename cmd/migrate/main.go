package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/cocobubble/storefront/pkg/config"
	"github.com/cocobubble/storefront/pkg/db"
	"github.com/cocobubble/storefront/pkg/logger"
	"github.com/cocobubble/storefront/pkg/migrate"
)

type options struct {
	dir     string
	name    string
	version int64
}

// fileCommands work on the migrations directory and never open the database.
var fileCommands = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return errors.New("-name is required for create")
		}
		path, err := migrate.CreateSQLMigration(dirOrDefault(o.dir), o.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(dirOrDefault(o.dir)); err != nil {
			return err
		}
		fmt.Println("migrations valid")
		return nil
	},
}

var dbCommands = map[string]func(context.Context, *migrate.Migrator, options) error{
	"up": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		applied, err := m.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s)\n", len(applied))
		return nil
	},
	"down": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		version, err := m.Down(ctx)
		if err != nil {
			return err
		}
		fmt.Println("rolled back", version)
		return nil
	},
	"reset": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		return m.Reset(ctx)
	},
	"version": func(ctx context.Context, m *migrate.Migrator, o options) error {
		if o.version < 0 {
			current, err := m.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Println(current)
			return nil
		}
		return m.To(ctx, o.version)
	},
	"status": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			state, at := "pending", "-"
			if s.Applied {
				state, at = "applied", s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, state, at, s.Path)
		}
		return tw.Flush()
	},
}

func main() {
	_ = godotenv.Load()

	var opts options
	cmd := flag.String("cmd", "up", "one of: "+commandList())
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (default: embedded set, or "+migrate.DefaultDir+" for create/validate)")
	flag.StringVar(&opts.name, "name", "", "migration name for create")
	flag.Int64Var(&opts.version, "version", -1, "target version for -cmd=version; omit to print the current one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"cmd":     *cmd,
		"dialect": migrate.Dialect(cfg.DB.DriverName()),
	})

	if err := run(ctx, cfg, logg, *cmd, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, cmd string, opts options) error {
	if fn, ok := fileCommands[cmd]; ok {
		return fn(opts)
	}
	fn, ok := dbCommands[cmd]
	if !ok {
		return fmt.Errorf("unknown -cmd %q (want one of: %s)", cmd, commandList())
	}

	if cfg.DB.DSN == "" {
		return fmt.Errorf("STOREFRONT_DB_DSN is required for %s", cmd)
	}
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	if err != nil {
		return err
	}
	migrator, err := migrate.NewMigrator(sqlDB, cfg.DB.DriverName(), migrate.Source(opts.dir))
	if err != nil {
		return err
	}
	if err := fn(ctx, migrator, opts); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.completed")
	return nil
}

func dirOrDefault(dir string) string {
	if dir == "" {
		return migrate.DefaultDir
	}
	return dir
}

func commandList() string {
	names := make([]string, 0, len(fileCommands)+len(dbCommands))
	for name := range fileCommands {
		names = append(names, name)
	}
	for name := range dbCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
