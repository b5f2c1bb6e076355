package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/handlers"
	"github.com/blockpulse/indexer/internal/storage"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run the read API",
	Run: func(cmd *cobra.Command, args []string) {
		RunApi(cmd, args)
	},
}

func RunApi(cmd *cobra.Command, args []string) {
	mainStorage, err := storage.NewStorageConnector(&config.Cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect storage")
	}
	defer mainStorage.MainStorage.Close()

	if err := handlers.NewServer(mainStorage.MainStorage).Start(); err != nil {
		log.Fatal().Err(err).Msg("API server failed")
	}
}
