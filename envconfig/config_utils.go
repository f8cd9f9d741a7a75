// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint/Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"ADAPTOR_DEBUG":             {"ADAPTOR_DEBUG", LogLevel(), "Show additional debug information (e.g. ADAPTOR_DEBUG=1)"},
		"ADAPTOR_HOST":              {"ADAPTOR_HOST", Host(), "IP Address for the adaptor server (default 127.0.0.1:11500)"},
		"ADAPTOR_ORIGINS":           {"ADAPTOR_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"ADAPTOR_NUM_THREADS":       {"ADAPTOR_NUM_THREADS", NumThreads(), "Threads used by the CPU backend (default: all)"},
		"ADAPTOR_SEED":              {"ADAPTOR_SEED", Seed(), "Seed for parameter initialization"},
		"ADAPTOR_BACKEND":           {"ADAPTOR_BACKEND", Backend(), "Compute backend (default: cpu)"},
		"ADAPTOR_VISION_MODEL_TYPE": {"ADAPTOR_VISION_MODEL_TYPE", VisionModelType(), "Vision backbone: transformer, convolutional or autoencoder"},
		"ADAPTOR_PROJECTION_DIM":    {"ADAPTOR_PROJECTION_DIM", ProjectionDim(), "Width of the shared embedding space"},
		"ADAPTOR_NUM_FUSION_LAYERS": {"ADAPTOR_NUM_FUSION_LAYERS", NumFusionLayers(), "Number of fusion encoder layers"},
		"ADAPTOR_TEXT_EMBED_DIM":    {"ADAPTOR_TEXT_EMBED_DIM", TextEmbedDim(), "Width of precomputed text embeddings"},
		"ADAPTOR_VISION_OUTPUT_DIM": {"ADAPTOR_VISION_OUTPUT_DIM", VisionOutputDim(), "Width of precomputed image embeddings"},
		"ADAPTOR_RETURN_LOSS":       {"ADAPTOR_RETURN_LOSS", ReturnLoss(false), "Compute the contrastive loss unless a request says otherwise"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
