package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/agentmesh/commandcenter/internal/core/services"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/agentmesh/commandcenter/internal/infrastructure/stream"
	"github.com/spf13/cobra"
)

type replayReport struct {
	Board *domain.BoardSnapshot `json:"board"`
	Stats domain.FrameStats     `json:"stats"`
}

func newReplayCmd() *cobra.Command {
	var (
		verbose   bool
		withStats bool
	)
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Feed a recorded frame file through the board and print the result",
		Long:  "Reads newline-delimited frames from FILE (\"-\" for stdin), applies them in order and prints the final board snapshot as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.NewNop()
			if verbose {
				l, err := logger.New(config.LoggerConfig{Level: "debug", OutputPaths: []string{"stderr"}})
				if err != nil {
					return err
				}
				defer l.Sync()
				log = l
			}
			return runReplay(cmd.Context(), args[0], withStats, cmd.OutOrStdout(), log)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every frame to stderr")
	cmd.Flags().BoolVar(&withStats, "stats", false, "wrap the snapshot with frame counters")
	return cmd
}

func runReplay(ctx context.Context, path string, withStats bool, out io.Writer, log *logger.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	state := services.NewBoardState(services.BoardStateConfig{Source: config.SourceFile, Logger: log})
	supervisor := services.NewSupervisor(services.SupervisorConfig{
		Source:  stream.NewFileSource(path, log),
		Handler: state,
		Logger:  log,
	})

	if err := supervisor.Run(ctx); err != nil {
		return fmt.Errorf("failed to replay %s: %w", path, err)
	}

	var v any = state.Snapshot()
	if withStats {
		v = replayReport{Board: state.Snapshot(), Stats: state.Stats()}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
