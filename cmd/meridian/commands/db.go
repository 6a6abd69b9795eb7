package commands

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/config"
	"github.com/meridianhq/meridian/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the Meridian database",
	Long: `Manage broker database operations.

Examples:
  meridian db migrate            # Apply pending schema migrations
  meridian db stats              # Show job counts by status`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show job statistics",
	Long:  "Display job counts by status for the configured database",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase(cfg, "")
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Printf("Database %s is up to date\n", cfg.Database.Path)
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase(cfg, "")
	if err != nil {
		return err
	}
	defer database.Close()

	var total int
	if err := database.QueryRow(`SELECT COUNT(*) FROM jobs`).Scan(&total); err != nil {
		return errors.Wrap(err, "failed to count jobs")
	}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Database Path: %s\n", cfg.Database.Path)
	fmt.Printf("Total Jobs:    %d\n\n", total)

	rows, err := database.Query(`
		SELECT status, COUNT(*)
		FROM jobs
		GROUP BY status
		ORDER BY COUNT(*) DESC
	`)
	if err != nil && err != sql.ErrNoRows {
		return errors.Wrap(err, "failed to query job status counts")
	}
	if err == nil {
		defer rows.Close()
		fmt.Println("Jobs by Status:")
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				return errors.Wrap(err, "failed to scan status count")
			}
			fmt.Printf("  %-12s %d\n", status, count)
		}
	}

	return nil
}
