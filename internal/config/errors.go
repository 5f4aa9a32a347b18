package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Sentinel errors used throughout the driver.
var (
	ErrMissingConfigFile = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid config")
	ErrUnknownNetwork    = errors.New("unknown net")
	ErrInvalidPrivKey    = errors.New("invalid WIF private key")
	ErrInsufficientValue = errors.New("input value insufficient to cover fee")
	ErrSigningFailed     = errors.New("transaction signing failed")
)

// Fatal logs msg at error level with err attached and terminates the process.
// It is the Go-idiomatic analogue of original_source/main.cpp's abort() calls
// on unrecoverable configuration or parse failures: a bare panic scattered
// through business logic would obscure the actual cause from the operator.
func Fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// wrap is a small helper call sites use to attach a sentinel to context,
// mirroring the teacher's fmt.Errorf("...: %w", ...) idiom.
func wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}
