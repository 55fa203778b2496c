package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiowebux/benchverify/internal/mock"
)

var (
	mockConfigPath  string
	mockHost        string
	mockPort        int
	mockWriteConfig string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve a reference implementation of every test contract",
	Long: `Serve a reference implementation of every test contract over an in-memory
world and fortune table. Faults in the config file break single contracts
on purpose, which is useful for checking the verifier itself.

Examples:
  benchverify mock --port 8080
  benchverify mock --config-file mock.yaml
  benchverify mock --write-config mock.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &mock.Config{}
		if mockConfigPath != "" {
			loaded, err := mock.LoadConfig(mockConfigPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Flags().Changed("host") {
			cfg.Host = mockHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = mockPort
		}

		server := mock.NewServer(cfg, mock.NewStore(), logger)

		if mockWriteConfig != "" {
			if err := mock.SaveConfig(cfg, mockWriteConfig); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Config written to %s\n", mockWriteConfig)
			return nil
		}

		if err := server.Start(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Reference server listening on %s (Ctrl+C to stop)\n", server.GetAddress())

		ctx, stop := signalContext()
		defer stop()
		<-ctx.Done()

		logger.Info("Shutting down reference server")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
		return nil
	},
}

func init() {
	mockCmd.Flags().StringVar(&mockConfigPath, "config-file", "", "Reference server config (.yaml/.json)")
	mockCmd.Flags().StringVar(&mockHost, "host", "localhost", "Listen host")
	mockCmd.Flags().IntVar(&mockPort, "port", 8080, "Listen port")
	mockCmd.Flags().StringVar(&mockWriteConfig, "write-config", "", "Write the effective config to this file and exit")
}
