package testutil

import (
	"io"
	"log/slog"
)

// Quiet returns a logger that drops everything. Components under test log
// from background goroutines that can outlive the test, so tests never log
// through testing.T.
func Quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
