package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-reservations/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL tables",
	Long:  "Create the courses, enrollments and lock_leases tables if they do not exist.",
	RunE:  runMigrate,
}

// init registers the migrate command.
func init() {
	rootCmd.AddCommand(migrateCmd)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id              VARCHAR(64)  NOT NULL PRIMARY KEY,
		title           VARCHAR(255) NOT NULL,
		capacity        INT          NOT NULL,
		available_seats INT          NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		student_id VARCHAR(64) NOT NULL,
		course_id  VARCHAR(64) NOT NULL,
		seat       VARCHAR(64) NOT NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		PRIMARY KEY (student_id, course_id)
	)`,
	`CREATE TABLE IF NOT EXISTS lock_leases (
		lock_key     VARCHAR(191) NOT NULL PRIMARY KEY,
		holder_token VARCHAR(64)  NOT NULL,
		expires_at   DATETIME(3)  NOT NULL
	)`,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	if err := applySchema(ctx, db); err != nil {
		return err
	}
	logrus.Info("Schema up to date")
	return nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
