package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Накатывает migrations/*.sql по порядку. DSN и glob берутся из
// .migrate.yaml (dsn можно переопределить через DATABASE_DSN).
func main() {
	viper.SetConfigName(".migrate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	dsn := viper.GetString("dsn")
	if env := os.Getenv("DATABASE_DSN"); env != "" {
		dsn = env
	}
	if dsn == "" {
		panic("has no dsn in config")
	}

	pattern := viper.GetString("source")
	if pattern == "" {
		pattern = "migrations/*.sql"
	}
	files, err := filepath.Glob(pattern)
	if err != nil {
		panic(fmt.Errorf("get file glob: %w", err))
	}
	if len(files) == 0 {
		panic(fmt.Sprintf("no migration files match %q", pattern))
	}
	sort.Strings(files)

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		panic(errors.Wrap(err, "connect"))
	}
	defer func() {
		_ = conn.Close(ctx)
	}()

	for _, file := range files {
		if aErr := apply(ctx, conn, file); aErr != nil {
			panic(fmt.Errorf("apply %s: %w", file, aErr))
		}
		fmt.Printf("%s file complete\n", file)
	}
	fmt.Println("done")
}

func apply(ctx context.Context, conn *pgx.Conn, file string) error {
	content, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read file")
	}
	if _, err := conn.Exec(ctx, string(content)); err != nil {
		return errors.Wrap(err, "exec")
	}
	return nil
}
