package config

import (
	"time"

	"github.com/spf13/viper"
)

// GetDataPath returns the mood log file path
func GetDataPath() string {
	return viper.GetString("storage.data_path")
}

// GetUploadDir returns the directory for uploaded images
func GetUploadDir() string {
	return viper.GetString("storage.upload_dir")
}

// GetServerAddr returns the HTTP listen address
func GetServerAddr() string {
	return viper.GetString("server.addr")
}

// GetDailyMax returns how many records may be created per 24-hour window
func GetDailyMax() int {
	return viper.GetInt("ratelimit.daily_max")
}

// GetAIEnabled reports whether the AI collaborator is wired up
func GetAIEnabled() bool {
	return viper.GetBool("ai.enabled")
}

// GetAIModel returns the chat model name
func GetAIModel() string {
	return viper.GetString("ai.model")
}

// GetAIVisionModel returns the multimodal model used for draw mode
func GetAIVisionModel() string {
	return viper.GetString("ai.vision_model")
}

// GetOllamaURL returns the Ollama API endpoint
func GetOllamaURL() string {
	return viper.GetString("ai.ollama_url")
}

// GetAITimeout returns the bound on a single collaborator call
func GetAITimeout() time.Duration {
	return time.Duration(viper.GetInt("ai.timeout_seconds")) * time.Second
}

// GetHistoryDefaultN returns the default recency-view page size
func GetHistoryDefaultN() int {
	return viper.GetInt("history.default_n")
}

// GetHistoryMaxN returns the recency-view page size cap
func GetHistoryMaxN() int {
	return viper.GetInt("history.max_n")
}
