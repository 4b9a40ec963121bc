package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		app, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()
		if app.DB == nil {
			return errors.New("migrate requires DATABASE_URL")
		}
		if err := app.DB.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
