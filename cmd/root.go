package cmd

import (
	"log"
	"time"

	"github.com/spigell/shiftmatch/internal/matching"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "shiftmatch"
)

type Config struct {
	Backend       *BackendConfig `mapstructure:"backend"`
	WorkerID      string         `mapstructure:"worker-id"`
	Worker        *WorkerConfig  `mapstructure:"worker"`
	JobsFile      string         `mapstructure:"jobs-file"`
	DismissedFile string         `mapstructure:"dismissed-file"`
	Apply         *struct {
		Message string
	}
}

type BackendConfig struct {
	URL        string        `mapstructure:"url"`
	UserAgent  string        `mapstructure:"user-agent"`
	TokenFile  string        `mapstructure:"token-file"`
	Token      string        `mapstructure:"token" json:"-"`
	MaxRetries *int          `mapstructure:"max-retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// WorkerConfig is an inline worker profile. It replaces the backend lookup.
type WorkerConfig struct {
	ID           string   `mapstructure:"id"`
	Categories   []string `mapstructure:"categories"`
	SelectedTags []string `mapstructure:"selected-tags"`
	Home         *struct {
		Lat float64
		Lng float64
	} `mapstructure:"home"`
	RadiusKm float64 `mapstructure:"radius-km"`
}

func (w *WorkerConfig) Profile() *matching.WorkerProfile {
	p := &matching.WorkerProfile{
		ID:           w.ID,
		Categories:   w.Categories,
		SelectedTags: w.SelectedTags,
		RadiusKm:     w.RadiusKm,
	}
	if w.Home != nil {
		p.HomeLocation = &matching.Location{Lat: w.Home.Lat, Lng: w.Home.Lng}
	}
	return p
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "shiftmatch is a simple cli for finding short-notice shifts that fit a worker profile",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("backend.token-file", "SHIFTMATCH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding SHIFTMATCH_TOKEN_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is shiftmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for the job commands. If none of them runs, we can skip initialization.
	if feedCmd.CalledAs() == "" && explainCmd.CalledAs() == "" && nearbyCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
