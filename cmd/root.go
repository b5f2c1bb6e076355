package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configs "github.com/blockpulse/indexer/configs"
	customLogger "github.com/blockpulse/indexer/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "blockpulse",
		Short: "EVM chain indexer deriving transfers, balances, swaps and prices",
		Long: "Blockpulse ingests blocks, transactions, receipts and logs from chain RPC\n" +
			"and derives ERC-20 transfers, per-address balance histories, DEX swaps and\n" +
			"anchor-currency prices. Each pipeline stage can run as its own process;\n" +
			"the bare command runs every stage plus the read API in one process.",
		Run: func(cmd *cobra.Command, args []string) {
			RunAll(cmd, args)
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().StringSlice("rpc-urls", nil, "RPC endpoint URLs")
	rootCmd.PersistentFlags().String("rpc-chain-id", "", "Chain id of the indexed chain")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	rootCmd.PersistentFlags().String("nats-url", "", "NATS server URL")
	rootCmd.PersistentFlags().String("kafka-brokers", "", "Comma separated Kafka broker list")
	rootCmd.PersistentFlags().Int("poller-interval", 0, "Poller interval in milliseconds")
	rootCmd.PersistentFlags().Int("poller-from-block", 0, "From which block to start polling")
	rootCmd.PersistentFlags().String("api-host", "", "Host for the read API")
	rootCmd.PersistentFlags().Int("api-port", 0, "Port for the read API")
	viper.BindPFlag("rpc.urls", rootCmd.PersistentFlags().Lookup("rpc-urls"))
	viper.BindPFlag("rpc.chainId", rootCmd.PersistentFlags().Lookup("rpc-chain-id"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	viper.BindPFlag("nats.url", rootCmd.PersistentFlags().Lookup("nats-url"))
	viper.BindPFlag("kafka.brokers", rootCmd.PersistentFlags().Lookup("kafka-brokers"))
	viper.BindPFlag("poller.interval", rootCmd.PersistentFlags().Lookup("poller-interval"))
	viper.BindPFlag("poller.fromBlock", rootCmd.PersistentFlags().Lookup("poller-from-block"))
	viper.BindPFlag("api.host", rootCmd.PersistentFlags().Lookup("api-host"))
	viper.BindPFlag("api.port", rootCmd.PersistentFlags().Lookup("api-port"))

	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(pollerCmd)
	for _, cmd := range stageCommands() {
		rootCmd.AddCommand(cmd)
	}
}

func initConfig() {
	if err := configs.LoadConfig(cfgFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	customLogger.InitLogger()
}
