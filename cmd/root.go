package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cartCmd "github.com/Alturino/shopcart/cart/cmd"
	"github.com/Alturino/shopcart/internal/constants"
	"github.com/Alturino/shopcart/internal/log"
)

func Start() {
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = constants.DEFAULT_LOG_FILE
	}
	logger := log.InitLogger(logFile).
		With().
		Str(log.KeyAppName, constants.APP_SHOPCART).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          constants.APP_SHOPCART,
		Short:        "Cart lifecycle and merge service",
		SilenceUsage: true,
	}
	commands := []*cobra.Command{
		{
			Use:   "cart",
			Short: "Run cart service with the expired cart sweeper",
			RunE: func(cmd *cobra.Command, args []string) error {
				return cartCmd.RunCartService(cmd.Context())
			},
		},
		{
			Use:   "sweep",
			Short: "Delete expired guest carts once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return cartCmd.RunSweep(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)
	return rootCmd
}
