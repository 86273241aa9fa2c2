// Package common provides the configuration and logging shared by all parts
// of kvbase.
//
// Key Components:
//
//   - Config: all runtime settings. It is decoded from the viper settings map
//     with mapstructure and validated with go-playground/validator, so flags,
//     environment variables (KVBASE_*) and .env files all end up in the same
//     struct.
//
//   - Logger: a custom implementation of Dragonboat's logger.ILogger. Every
//     package obtains its logger with logger.GetLogger(<package>) and
//     InitLoggers installs the factory and applies the configured level.
package common
