package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lazypower/thringlet/internal/config"
)

var (
	configPath string
	remoteURL  string
	envFile    string

	cfg    = config.Default()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "thringlet",
	Short: "Digital companions that remember how you treat them",
	Long: "Thringlet keeps virtual companions whose emotion, corruption and bond drift with\n" +
		"every interaction and every hour of neglect. Single Go binary, SQLite storage.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.thringlet/config.toml)")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "talk to a running server at this URL instead of the local database")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(interactCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(abilitiesCmd)
	rootCmd.AddCommand(deleteCmd)
}

// loadConfig reads the dotenv file (if any), then the config file and
// THRINGLET_* overrides.
func loadConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		// Existing environment variables win over the file.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = c
	logger = newLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
