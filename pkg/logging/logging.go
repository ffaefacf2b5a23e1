package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// NewLogger creates an hclog logger with the settings every pldm-fwup
// binary shares.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv("PLDM_FWUP_JSON_LOG") == "1"

	if !jsonFormat {
		output = NewPrefixWriter("🔧 ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// GetLogLevel returns the configured log level from environment.
func GetLogLevel() string {
	level := os.Getenv("PLDM_FWUP_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	return level
}

// NewCLILogger builds the logger for a command-line invocation. The
// level comes from the --log-level flag, then PLDM_FWUP_LOG_LEVEL,
// then "info"; a "json" or "json:<level>" value selects JSON output;
// PLDM_FWUP_LOG_PATH redirects logging to a file.
func NewCLILogger(name, cliLevel string) hclog.Logger {
	level := cliLevel
	if level == "" {
		level = os.Getenv("PLDM_FWUP_LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}

	jsonFormat := false
	if strings.HasPrefix(level, "json") {
		jsonFormat = true
		if _, rest, ok := strings.Cut(level, ":"); ok {
			level = rest
		} else {
			level = "info"
		}
	}

	var output io.Writer = os.Stderr
	if logPath := os.Getenv("PLDM_FWUP_LOG_PATH"); logPath != "" {
		if file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			output = file
		}
	}
	if !jsonFormat {
		output = NewPrefixWriter("🔧 ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}
