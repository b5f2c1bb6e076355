package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/orchestrator"
)

var pollerCmd = &cobra.Command{
	Use:   "poller",
	Short: "Poll the chain head and feed new blocks into the pipeline",
	Run: func(cmd *cobra.Command, args []string) {
		runWithOrchestrator(func(ctx context.Context, orch *orchestrator.Orchestrator) error {
			return orch.RunPoller(ctx)
		})
	},
}

// stageCommands builds one subcommand per pipeline consumer role.
func stageCommands() []*cobra.Command {
	streamStages := map[string]string{
		"block-consumer":       orchestrator.TopicBlocks,
		"transaction-consumer": orchestrator.TopicTransactions,
		"swap-consumer":        orchestrator.TopicSwaps,
		"price-consumer":       orchestrator.TopicPrices,
	}
	queueStages := map[string]string{
		"receipt-consumer":              orchestrator.SubjectReceipts,
		"transfer-consumer":             orchestrator.SubjectTransfers,
		"balance-consumer":              orchestrator.SubjectBalances,
		"internal-transaction-consumer": orchestrator.SubjectInternalTransactions,
		"contract-consumer":             orchestrator.SubjectContracts,
	}

	cmds := []*cobra.Command{}
	for use, topic := range streamStages {
		topic := topic
		cmds = append(cmds, &cobra.Command{
			Use:   use,
			Short: fmt.Sprintf("Consume the %s stream stage", topic),
			Run: func(cmd *cobra.Command, args []string) {
				runWithOrchestrator(func(ctx context.Context, orch *orchestrator.Orchestrator) error {
					return orch.RunStreamStage(ctx, topic)
				})
			},
		})
	}
	for use, subject := range queueStages {
		subject := subject
		cmds = append(cmds, &cobra.Command{
			Use:   use,
			Short: fmt.Sprintf("Consume the %s queue stage", subject),
			Run: func(cmd *cobra.Command, args []string) {
				runWithOrchestrator(func(ctx context.Context, orch *orchestrator.Orchestrator) error {
					return orch.RunQueueStage(ctx, subject)
				})
			},
		})
	}
	return cmds
}

// runWithOrchestrator runs one role until SIGINT/SIGTERM. A role failure is
// fatal: broker state must not be faked after a transport fault, so the
// process exits and supervision restarts it.
func runWithOrchestrator(run func(context.Context, *orchestrator.Orchestrator) error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orch, err := orchestrator.NewOrchestrator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize orchestrator")
	}
	defer orch.Close()

	if err := run(ctx, orch); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Consumer failed")
	}
}

// RunAll runs every pipeline role plus the read API in one process. Meant
// for development; production runs one role per process.
func RunAll(cmd *cobra.Command, args []string) {
	go RunApi(cmd, args)

	runWithOrchestrator(func(ctx context.Context, orch *orchestrator.Orchestrator) error {
		var wg sync.WaitGroup
		runRole := func(name string, run func(context.Context, *orchestrator.Orchestrator) error) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := run(ctx, orch); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Str("role", name).Msg("Pipeline role failed")
				}
			}()
		}

		for _, topic := range []string{
			orchestrator.TopicBlocks, orchestrator.TopicTransactions,
			orchestrator.TopicSwaps, orchestrator.TopicPrices,
		} {
			topic := topic
			runRole(topic, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
				return orch.RunStreamStage(ctx, topic)
			})
		}
		for _, subject := range []string{
			orchestrator.SubjectReceipts, orchestrator.SubjectTransfers,
			orchestrator.SubjectBalances, orchestrator.SubjectInternalTransactions,
			orchestrator.SubjectContracts,
		} {
			subject := subject
			runRole(subject, func(ctx context.Context, orch *orchestrator.Orchestrator) error {
				return orch.RunQueueStage(ctx, subject)
			})
		}

		var err error
		if config.Cfg.Poller.Enabled {
			err = orch.RunPoller(ctx)
		} else {
			log.Info().Msg("Poller disabled, running consumers only")
			<-ctx.Done()
			err = ctx.Err()
		}
		wg.Wait()
		return err
	})
}
