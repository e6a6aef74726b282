// Package logging configures slog for indexwrap.
//
// Without --debug, warnings and errors go to stderr as text. With --debug,
// JSON records at debug level are also written to ~/.indexwrap/logs/ with
// size-based rotation.
package logging
