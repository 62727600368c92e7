package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/pkg/logger"
)

var (
	configDir string
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "cpd-portal",
	Short: "Nursing CPD Portal",
	Long:  `Web portal for nursing continuing professional development events, registrations and analytics.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfig layers the built-in defaults, config.yml in path, a local .env
// file and CPD_* environment variables, in increasing precedence.
func loadConfig(path string) (*internal.Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range internal.Defaults() {
		v.SetDefault(key, value)
	}
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("CPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// setup loads the configuration and installs the process logger.
func setup() (*internal.Config, *slog.Logger, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, nil, err
	}
	log := logger.InitWith(logger.Options{
		Env:    cfg.Env,
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	return cfg, log, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory containing config.yml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(notifyCmd)
}
