package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/blockpulse/indexer/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the storage schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		if err := db.RunMigrations(); err != nil {
			log.Fatal().Err(err).Msg("Migrations failed")
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
