package adaptor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Fehler - Sentinels und strukturierte Fehlertypen
// ============================================================================
//
// Dieses Modul enthaelt:
// - Sentinel-Fehler fuer errors.Is
// - ShapeError, BatchError, BackboneError, ConfigError mit Unwrap

var (
	ErrShapeMismatch       = errors.New("adaptor: shape mismatch")
	ErrBatchSizeMismatch   = errors.New("adaptor: batch size mismatch")
	ErrUnsupportedBackbone = errors.New("adaptor: unsupported backbone")
	ErrConfiguration       = errors.New("adaptor: invalid configuration")
)

// ShapeError beschreibt einen Tensor mit unerwarteter Form. In Want steht
// -1 fuer eine beliebige Groesse.
type ShapeError struct {
	Op   string
	Want []int
	Got  []int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("adaptor: %s: want shape %s, got %s", e.Op, formatShape(e.Want), formatShape(e.Got))
}

func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func formatShape(shape []int) string {
	dims := make([]string, len(shape))
	for i, d := range shape {
		if d < 0 {
			dims[i] = "*"
		} else {
			dims[i] = strconv.Itoa(d)
		}
	}
	return "(" + strings.Join(dims, ", ") + ")"
}

// BatchError meldet unterschiedliche Batch-Groessen von Text und Bild
type BatchError struct {
	Text, Image int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("adaptor: text batch %d does not match image batch %d", e.Text, e.Image)
}

func (e *BatchError) Unwrap() error {
	return ErrBatchSizeMismatch
}

// BackboneError meldet ein unbekanntes Backbone-Tag
type BackboneError struct {
	Tag        string
	Suggestion string
}

func (e *BackboneError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("adaptor: unsupported backbone %q, did you mean %q?", e.Tag, e.Suggestion)
	}
	return fmt.Sprintf("adaptor: unsupported backbone %q", e.Tag)
}

func (e *BackboneError) Unwrap() error {
	return ErrUnsupportedBackbone
}

// ConfigError meldet ein ungueltiges Konfigurationsfeld
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "adaptor: config " + e.Field + ": " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}
