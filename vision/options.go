// MODUL: options
// ZWECK: Functional Options Pattern fuer die Bild-Vorverarbeitung
// INPUT: Optionale Parameter (Groesse, Kanaele, Normalisierung)
// OUTPUT: PreprocessOptions Struct mit Konfiguration
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Default entspricht der Roentgen-Vorverarbeitung fuer Autoencoder

package vision

import (
	"errors"
	"image/color"
)

// ============================================================================
// PreprocessOptions - Zentrale Konfigurationsstruktur
// ============================================================================

// Normalization waehlt die Abbildung von Pixelwerten auf Modell-Eingaben
type Normalization int

const (
	// NormalizeXRayRange bildet den ersten Kanal auf [-1024, 1024] ab
	NormalizeXRayRange Normalization = iota
	// NormalizeMeanStd normalisiert RGB mit mean/std
	NormalizeMeanStd
)

// PreprocessOptions enthaelt die Konfiguration der Vorverarbeitung.
type PreprocessOptions struct {
	Size          int           // Kantenlaenge des quadratischen Ausgabebilds
	Channels      int           // Ausgabekanaele: 1 oder 3
	Normalization Normalization // Wertebereich der Pixel
	Mean, Std     [3]float32    // nur fuer NormalizeMeanStd
	Background    color.Color   // Hintergrund fuer transparente Bilder
}

// Option ist eine funktionale Option fuer PreprocessOptions.
type Option func(*PreprocessOptions)

// ============================================================================
// Fehler-Definitionen fuer Options
// ============================================================================

var (
	ErrInvalidSize     = errors.New("vision: invalid size")
	ErrInvalidChannels = errors.New("vision: invalid channel count")
	ErrInvalidStd      = errors.New("vision: invalid standard deviation")
)

// ============================================================================
// DefaultPreprocessOptions - Standard-Konfiguration
// ============================================================================

// DefaultPreprocessOptions gibt die Roentgen-Konfiguration zurueck:
// 224x224, ein Kanal, Wertebereich [-1024, 1024].
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Size:          224,
		Channels:      1,
		Normalization: NormalizeXRayRange,
		Mean:          ClipMean,
		Std:           ClipStd,
		Background:    color.Black,
	}
}

// ============================================================================
// Functional Options - Builder-Funktionen
// ============================================================================

// WithSize setzt die Kantenlaenge des Ausgabebilds.
func WithSize(n int) Option {
	return func(o *PreprocessOptions) {
		o.Size = n
	}
}

// WithChannels setzt die Anzahl der Ausgabekanaele.
// Bei Roentgen-Normalisierung wird der Grauwert repliziert.
func WithChannels(n int) Option {
	return func(o *PreprocessOptions) {
		o.Channels = n
	}
}

// WithMeanStd aktiviert RGB-Normalisierung mit mean/std.
func WithMeanStd(mean, std [3]float32) Option {
	return func(o *PreprocessOptions) {
		o.Normalization = NormalizeMeanStd
		o.Channels = 3
		o.Mean, o.Std = mean, std
	}
}

// WithBackground setzt die Hintergrundfarbe fuer transparente Bilder.
func WithBackground(c color.Color) Option {
	return func(o *PreprocessOptions) {
		if c != nil {
			o.Background = c
		}
	}
}

// Apply wendet alle Options an.
func (o *PreprocessOptions) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// ============================================================================
// Validation - Konfiguration validieren
// ============================================================================

// Validate prueft ob die PreprocessOptions gueltig sind.
func (o *PreprocessOptions) Validate() error {
	if o.Size <= 0 {
		return ErrInvalidSize
	}

	switch {
	case o.Channels != 1 && o.Channels != 3:
		return ErrInvalidChannels
	case o.Normalization == NormalizeMeanStd && o.Channels != 3:
		return ErrInvalidChannels
	}

	if o.Normalization == NormalizeMeanStd {
		for _, s := range o.Std {
			if s <= 0 {
				return ErrInvalidStd
			}
		}
	}

	return nil
}
