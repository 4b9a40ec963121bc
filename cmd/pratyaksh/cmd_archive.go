package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the archive of previously published media",
}

var archiveAddFlags struct {
	sourceURL string
	firstSeen string
}

var archiveAddCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "Fingerprint an image and record where it was published",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveAdd,
}

func init() {
	archiveAddCmd.Flags().StringVar(&archiveAddFlags.sourceURL, "source-url", "", "URL where the image was published (required)")
	archiveAddCmd.Flags().StringVar(&archiveAddFlags.firstSeen, "first-seen", "", "When the image was first published, RFC3339 (default now)")
	_ = archiveAddCmd.MarkFlagRequired("source-url")
	archiveCmd.AddCommand(archiveAddCmd)
}

func runArchiveAdd(cmd *cobra.Command, args []string) error {
	var firstSeen time.Time
	if archiveAddFlags.firstSeen != "" {
		t, err := time.Parse(time.RFC3339, archiveAddFlags.firstSeen)
		if err != nil {
			return fmt.Errorf("--first-seen: %w", err)
		}
		firstSeen = t
	}

	ctx := cmd.Context()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Archive == nil {
		return errors.New("archive requires DATABASE_URL")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	media, err := app.Store.Acquire(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	defer func() { _ = app.Store.Release(media) }()

	id, err := app.Archive.Register(ctx, media, archiveAddFlags.sourceURL, firstSeen)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
