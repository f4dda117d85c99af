// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, dotenv files, and zap logging for the CLI, along with
// command context accessors and a flushing writer for console output.
package utils
