package logger

import (
	"os"
	"strings"
)

// LoggerConfig holds configuration for the logger.
type LoggerConfig struct {
	Level      string
	Format     string
	OutputFile string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// DefaultConfig reads LOG_LEVEL, LOG_FORMAT and LOG_OUTPUT_FILE from the environment.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format:     strings.ToLower(getEnv("LOG_FORMAT", "json")),
		OutputFile: getEnv("LOG_OUTPUT_FILE", "stdout"),
	}
}

func (c *LoggerConfig) consoleEncoding() bool {
	return c.Format == "console" || c.Format == "text"
}

func (c *LoggerConfig) outputPaths() (out []string, errOut []string) {
	if c.OutputFile == "" || c.OutputFile == "stdout" || c.OutputFile == "stderr" {
		path := c.OutputFile
		if path == "" {
			path = "stdout"
		}
		return []string{path}, []string{"stderr"}
	}
	return []string{c.OutputFile, "stdout"}, []string{c.OutputFile, "stderr"}
}
