// config_features.go - Runtime- und Modell-Konfiguration
//
// Dieses Modul enthaelt:
// - Runtime-Variablen (Threads, Seed, Backend)
// - Modell-Variablen, die adaptor.Config ueberlagern
package envconfig

// =============================================================================
// Runtime
// =============================================================================

var (
	// NumThreads begrenzt die Threads des CPU-Backends (0 = GOMAXPROCS)
	NumThreads = Uint("ADAPTOR_NUM_THREADS", 0)

	// Seed initialisiert die Zufallsgeneratoren der Parameter-Initialisierung
	Seed = Uint64("ADAPTOR_SEED", 0)

	// Backend waehlt das ml-Backend (leer = cpu)
	Backend = String("ADAPTOR_BACKEND")
)

// =============================================================================
// Modell
// =============================================================================

var (
	// VisionModelType setzt das Vision-Backbone (transformer, convolutional, autoencoder)
	VisionModelType = String("ADAPTOR_VISION_MODEL_TYPE")

	// ProjectionDim setzt die Breite des gemeinsamen Raums (0 = Default)
	ProjectionDim = Uint("ADAPTOR_PROJECTION_DIM", 0)

	// NumFusionLayers setzt die Anzahl der Fusion-Layer (0 = Default)
	NumFusionLayers = Uint("ADAPTOR_NUM_FUSION_LAYERS", 0)

	// TextEmbedDim setzt die Breite der Text-Encoder-Ausgabe
	TextEmbedDim = Uint("ADAPTOR_TEXT_EMBED_DIM", 0)

	// VisionOutputDim setzt die Breite der Vision-Encoder-Ausgabe
	VisionOutputDim = Uint("ADAPTOR_VISION_OUTPUT_DIM", 0)
)

// =============================================================================
// Server
// =============================================================================

var (
	// ReturnLoss ist der Default fuer Align-Anfragen ohne return_loss
	ReturnLoss = BoolWithDefault("ADAPTOR_RETURN_LOSS")
)
