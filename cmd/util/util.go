package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvbase/lib/common"
	"github.com/ValentinKolb/kvbase/lib/core"
	"github.com/ValentinKolb/kvbase/lib/db"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

var (
	config *common.Config
	ctx    *core.Context
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupFlags adds the configuration flags to a command
func SetupFlags(cmd *cobra.Command) {
	defaults := common.DefaultConfig()

	key := "db-path"
	cmd.PersistentFlags().String(key, defaults.DBPath, WrapString("Root directory of the database catalog"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("The level at which logs will be output (debug, info, warn, error)"))

	key = "perm"
	cmd.PersistentFlags().String(key, defaults.Perm, WrapString("Global permission level of the local user (none, read, write, create, admin)"))

	key = "local-perms"
	cmd.PersistentFlags().String(key, defaults.LocalPerms, WrapString("Comma-separated per-database permission levels in the format 'pattern=level' (e.g. 'sales=write,tmp_*=none')"))

	key = "evict-idle"
	cmd.PersistentFlags().Bool(key, defaults.EvictIdle, WrapString("Close a database as soon as no session has it open anymore"))

	key = "badger-cache-mb"
	cmd.PersistentFlags().Int64(key, defaults.BadgerCacheMB, WrapString("Block cache size of each storage engine in MB (0 for the BadgerDB default)"))

	key = "badger-in-memory"
	cmd.PersistentFlags().Bool(key, defaults.BadgerInMemory, WrapString("Keep the storage engines in memory, nothing is written to disk"))

	key = "no-color"
	cmd.PersistentFlags().Bool(key, defaults.NoColor, WrapString("Disable colored output"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("kvbase")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// LoadConfig binds the flags of cmd, decodes the configuration and
// initializes loggers and colors.
func LoadConfig(cmd *cobra.Command) (*common.Config, error) {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := common.Decode(viper.AllSettings())
	if err != nil {
		return nil, err
	}
	if err := common.InitLoggers(cfg); err != nil {
		return nil, err
	}
	InitColors(cfg.NoColor)
	config = cfg
	return cfg, nil
}

// Config returns the configuration loaded by LoadConfig.
func Config() *common.Config {
	return config
}

// Context opens the application context on first use.
func Context() (*core.Context, error) {
	if ctx != nil {
		return ctx, nil
	}
	if config == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	c, err := core.Open(config)
	if err != nil {
		return nil, err
	}
	ctx = c
	return ctx, nil
}

// CloseContext closes the application context if it was opened.
func CloseContext() error {
	if ctx == nil {
		return nil
	}
	err := ctx.Close()
	ctx = nil
	return err
}

// --------------------------------------------------------------------------
// Exit codes
// --------------------------------------------------------------------------

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		return 1
	}
	switch dbErr.Code {
	case db.ErrCInvalidName:
		return 2
	case db.ErrCNotFound:
		return 3
	case db.ErrCUpdateInProgress:
		return 4
	case db.ErrCPermissionDenied:
		return 5
	case db.ErrCIOFailure:
		return 6
	default:
		return 1
	}
}
