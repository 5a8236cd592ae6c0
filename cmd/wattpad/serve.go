package cmd

import (
	"log/slog"

	"github.com/bawanisandunika/wattpad-downloader/pkg/config"
	"github.com/bawanisandunika/wattpad-downloader/pkg/server"
	"github.com/bawanisandunika/wattpad-downloader/pkg/services"
	"github.com/bawanisandunika/wattpad-downloader/pkg/wattpad"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and download API",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		client := wattpad.NewClient(wattpad.ClientOptions{
			BaseURL: cfg.BaseURL,
			Timeout: cfg.RequestTimeout,
			Retries: cfg.FetchRetries,
		})
		downloader := services.NewDownloader(client, cfg.BatchSize, cfg.FetchDelay)

		slog.Info("starting server", "base_url", cfg.BaseURL, "batch_size", cfg.BatchSize)
		srv := server.New(cfg, client, downloader)
		if err := srv.Run(); err != nil {
			cobra.CheckErr(err)
		}
	},
}
