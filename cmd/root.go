package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/video-stream/transcriber/internal/config"
)

var (
	configFile string
	cfg        *config.Config
)

// rootCmd runs the server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "transcriber",
	Short: "Media transcription service",
	Long: `Fetches the audio of a media URL with yt-dlp, transcribes it on a whisper
inference server and keeps a history of results.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configFile
		if path == "" {
			path = os.Getenv("CONFIG_FILE")
		}
		loaded, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (default: $CONFIG_FILE)")
	rootCmd.Flags().Int("port", 0, "Port to listen on (overrides PORT)")
}
