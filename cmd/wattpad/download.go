package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/bawanisandunika/wattpad-downloader/pkg/app"
	"github.com/bawanisandunika/wattpad-downloader/pkg/config"
	"github.com/bawanisandunika/wattpad-downloader/pkg/data"
	"github.com/bawanisandunika/wattpad-downloader/pkg/integrations"
	"github.com/bawanisandunika/wattpad-downloader/pkg/services"
	"github.com/bawanisandunika/wattpad-downloader/pkg/wattpad"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [story-id]",
	Short: "Download a story to a document file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		storyID := args[0]
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		cfg := config.Load()
		client := wattpad.NewClient(wattpad.ClientOptions{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
			Retries: cfg.FetchRetries,
		})
		downloader := services.NewDownloader(client, cfg.BatchSize, cfg.FetchDelay)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DownloadTimeout)
		defer cancel()

		var bundle *data.Bundle
		var downloadErr error
		done := make(chan struct{})
		go func() {
			defer close(done)
			bundle, downloadErr = downloader.DownloadStory(ctx, storyID)
			downloader.Close()
		}()

		if err := app.RunDownloadUI(downloader.Progress()); err != nil {
			cobra.CheckErr(err)
		}
		<-done
		if downloadErr != nil {
			cobra.CheckErr(fmt.Errorf("download failed: %w", downloadErr))
		}

		var assembler integrations.Assembler
		switch format {
		case "pdf":
			assembler = integrations.NewPDFAssembler()
		case "epub":
			assembler = integrations.NewEPubAssembler()
		default:
			cobra.CheckErr(fmt.Errorf("unsupported format %q", format))
		}

		if output == "" {
			output = integrations.SanitizeFilename(bundle.Title) + "." + assembler.Extension()
		}
		f, err := os.Create(output)
		if err != nil {
			cobra.CheckErr(fmt.Errorf("create output: %w", err))
		}
		defer f.Close()

		if err := assembler.Assemble(bundle, f); err != nil {
			cobra.CheckErr(fmt.Errorf("assembly failed: %w", err))
		}
		fmt.Printf("Saved %s (%d chapters)\n", output, len(bundle.Chapters))
	},
}

func init() {
	downloadCmd.Flags().StringP("format", "f", "pdf", "Output format (pdf or epub)")
	downloadCmd.Flags().StringP("output", "o", "", "Output file path (defaults to the story title)")
}
