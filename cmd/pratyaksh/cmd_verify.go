package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pratyaksh/internal/services/verification"
)

var verifyFlags struct {
	lat string
	lon string
}

var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Verify an image and print the verdict as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFlags.lat, "lat", "", "Latitude where the image was reportedly taken")
	verifyCmd.Flags().StringVar(&verifyFlags.lon, "lon", "", "Longitude where the image was reportedly taken")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	resp, err := app.Verifier.Verify(ctx, verification.Upload{
		Filename: filepath.Base(args[0]),
		Body:     f,
		Lat:      verifyFlags.lat,
		Lon:      verifyFlags.lon,
		Channel:  verification.ChannelCLI,
	})
	if err != nil {
		resp = verification.ErrorResponse(err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(resp); encErr != nil {
		return encErr
	}
	return err
}
