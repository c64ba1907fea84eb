package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|to|status|version|create|validate")
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	name := flag.String("name", "", "migration name for -cmd=create")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	if err != nil {
		fail(context.Background(), logg, "config", err)
	}
	logg = logger.ForService("migrate", cfg.App.LogLevel, cfg.App.LogFormat, cfg.App.LogWarnStack)
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	var source fs.FS = migrate.Migrations()
	if *dir != "" {
		source = os.DirFS(*dir)
	}

	switch *cmd {
	case "create":
		out := *dir
		if out == "" {
			out = migrate.DefaultDir
		}
		if *name == "" {
			fail(ctx, logg, "create", fmt.Errorf("-name is required"))
		}
		path, err := migrate.CreateSQLMigration(out, *name)
		if err != nil {
			fail(ctx, logg, "create", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.ValidateFS(source); err != nil {
			fail(ctx, logg, "validate", err)
		}
		fmt.Println("migrations ok")
		return
	}

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "database", err)
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		fail(ctx, logg, "sql handle", err)
	}
	runner, err := migrate.NewRunner(sqlDB, source)
	if err != nil {
		fail(ctx, logg, "goose", err)
	}

	var applied []migrate.Applied
	switch *cmd {
	case "up":
		applied, err = runner.Up(ctx)
	case "down":
		applied, err = runner.Down(ctx)
	case "to":
		if *target == "" {
			fail(ctx, logg, "to", fmt.Errorf("-version is required"))
		}
		applied, err = runner.To(ctx, *target)
	case "status":
		err = printStatus(ctx, runner)
	case "version":
		var v int64
		if v, err = runner.Version(ctx); err == nil {
			fmt.Println(v)
		}
	default:
		err = fmt.Errorf("unknown -cmd %q", *cmd)
	}

	for _, a := range applied {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     a.Version,
			"file":        a.File,
			"direction":   a.Direction,
			"duration_ms": a.Took.Milliseconds(),
		}), "migrate.applied")
	}
	if err != nil {
		fail(ctx, logg, *cmd, err)
	}
}

func printStatus(ctx context.Context, runner *migrate.Runner) error {
	rows, err := runner.Status(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, row := range rows {
		state, at := "pending", "-"
		if row.Applied {
			state, at = "applied", row.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", row.Version, state, at, row.File)
	}
	return tw.Flush()
}

func fail(ctx context.Context, logg *logger.Logger, step string, err error) {
	logg.Error(logg.WithField(ctx, "step", step), "migrate failed", err)
	os.Exit(1)
}
