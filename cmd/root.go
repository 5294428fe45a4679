package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "moodlog",
	Short: "A color-first mood journal with an optional AI companion",
	Long: `moodlog records one mood at a time as an immutable journal entry:
  - pick a mood color and describe the feeling in one line
  - express it by writing, drawing, or collecting music
  - optionally develop it with a local AI companion (Ollama)
  - confirm the final color and append the entry to the log

Entries live in an append-only JSONL file and can be browsed by
recency or as a monthly calendar.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/moodlog/config.toml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "moodlog")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("storage.data_path", "data/mood_log.jsonl")
	viper.SetDefault("storage.upload_dir", "data/uploads")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("ratelimit.daily_max", 3)
	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.model", "llama3.2")
	viper.SetDefault("ai.vision_model", "llava")
	viper.SetDefault("ai.ollama_url", "http://localhost:11434")
	viper.SetDefault("ai.timeout_seconds", 30)
	viper.SetDefault("history.default_n", 1)
	viper.SetDefault("history.max_n", 30)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
