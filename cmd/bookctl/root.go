package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/concept-booking/internal/app"
	"github.com/iliyamo/concept-booking/internal/booking"
	"github.com/iliyamo/concept-booking/internal/config"
	"github.com/iliyamo/concept-booking/internal/database"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bookctl",
		Short: "Administer the concept booking store",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.ErrOrStderr(), "env: .env not loaded:", err)
			}
		},
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSweepCmd())
	root.AddCommand(newScheduleCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.StoreDriver != config.StoreMySQL {
				return fmt.Errorf("migrate needs STORE_DRIVER=%s", config.StoreMySQL)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()
			applied, err := database.Migrate(ctx, db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			}
			for _, f := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", f)
			}
			return nil
		},
	}
}

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove reservations that have already ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stores, err := app.OpenStores(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer stores.Close()

			removed, err := app.NewManager(stores, cfg).Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d reservation(s)\n", len(removed))
			return nil
		},
	}
}

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [YYYY-MM-DD]",
		Short: "Print booked concepts grouped by date, start time and holder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			var day *time.Time
			if len(args) == 1 {
				d, err := time.ParseInLocation("2006-01-02", args[0], cfg.Location)
				if err != nil {
					return fmt.Errorf("day must look like 2006-01-02: %w", err)
				}
				day = &d
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stores, err := app.OpenStores(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer stores.Close()

			days, err := app.NewManager(stores, cfg).ListAll(ctx, day)
			if err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), days)
			return nil
		},
	}
}

func printSchedule(w io.Writer, days []booking.DaySchedule) {
	if len(days) == 0 {
		fmt.Fprintln(w, "no reservations")
		return
	}
	for _, d := range days {
		fmt.Fprintln(w, d.Date)
		for _, s := range d.Slots {
			fmt.Fprintf(w, "  %s  total %d\n", s.Start.Format("15:04"), s.Total)
			for _, h := range s.Holders {
				fmt.Fprintf(w, "    %-20s %d\n", h.HolderID, h.Quantity)
			}
		}
	}
}
