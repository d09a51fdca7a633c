// Package logging wires kasm's structured logging: a human-readable
// handler on stderr, fanned out to an optional JSON file handler when one
// is configured, via log/slog.
//
// Grounded on the go.mod of other_examples/manifests/Manu343726-cucaracha
// (the one pack manifest that depends on github.com/samber/slog-multi) —
// no pack repo ships source using it, so the fan-out shape below follows
// that library's own documented Fanout(handlers...) constructor rather
// than an in-pack usage.
package logging

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// New returns a slog.Logger that always writes human-readable text to
// stderr and, when jsonFile is non-nil, additionally fans every record out
// as JSON to jsonFile.
func New(level slog.Level, jsonFile io.Writer) *slog.Logger {
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if jsonFile == nil {
		return slog.New(textHandler)
	}

	jsonHandler := slog.NewJSONHandler(jsonFile, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}
