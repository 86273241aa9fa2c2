package common

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvbase/lib/perm"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// validate is the singleton validator instance
var validate = validator.New()

// --------------------------------------------------------------------------
// Configuration struct
// --------------------------------------------------------------------------

// Config holds all runtime settings of kvbase. The mapstructure tags are the
// flag names, the environment variables are derived from them (KVBASE_DB_PATH, ...).
type Config struct {
	// DBPath is the root directory of the database catalog
	DBPath string `mapstructure:"db-path" validate:"required"`

	// LogLevel is applied to all package loggers
	LogLevel string `mapstructure:"log-level" validate:"required,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`

	// Perm is the global permission level of the local user
	Perm string `mapstructure:"perm" validate:"required,oneof=none read write create admin"`

	// LocalPerms are per-database levels in the form "pattern=level,..."
	LocalPerms string `mapstructure:"local-perms"`

	// EvictIdle closes database handles as soon as they are not used anymore
	EvictIdle bool `mapstructure:"evict-idle"`

	// BadgerCacheMB is the block cache size of each storage engine (0 = default)
	BadgerCacheMB int64 `mapstructure:"badger-cache-mb" validate:"gte=0"`

	// BadgerInMemory keeps the storage engines in memory
	BadgerInMemory bool `mapstructure:"badger-in-memory"`

	// NoColor disables colored terminal output
	NoColor bool `mapstructure:"no-color"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		DBPath:    "./data",
		LogLevel:  "warn",
		Perm:      "admin",
		EvictIdle: true,
	}
}

// --------------------------------------------------------------------------
// Loading
// --------------------------------------------------------------------------

// Decode builds a Config from a settings map (usually viper.AllSettings()).
// Missing keys keep their default value. Strings are converted to the field
// types, so values taken from the environment decode as well.
func Decode(settings map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration using struct tags and the rules that
// cannot be expressed in tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if _, err := ParseLocalPerms(cfg.LocalPerms); err != nil {
		return fmt.Errorf("local-perms: %w", err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s: is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// --------------------------------------------------------------------------
// Permissions
// --------------------------------------------------------------------------

// ParseLocalPerms parses "pattern=level,pattern=level". Empty entries are ignored.
func ParseLocalPerms(s string) (map[string]perm.Perm, error) {
	local := map[string]perm.Perm{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pattern, level, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(pattern) == "" {
			return nil, fmt.Errorf("invalid entry %q (expected pattern=level)", entry)
		}
		p, err := perm.Parse(level)
		if err != nil {
			return nil, err
		}
		local[strings.TrimSpace(pattern)] = p
	}
	return local, nil
}

// User returns the permission set of the local user described by cfg.
func (cfg *Config) User(name string) (*perm.User, error) {
	global, err := perm.Parse(cfg.Perm)
	if err != nil {
		return nil, err
	}
	local, err := ParseLocalPerms(cfg.LocalPerms)
	if err != nil {
		return nil, err
	}
	u := perm.NewUser(name, global)
	u.Local = local
	return u, nil
}
