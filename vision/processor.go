// MODUL: processor
// ZWECK: Bild-Vorverarbeitung zu Pixel-Tensoren fuer Vision-Encoder
// INPUT: ImageInput-Batch, PreprocessOptions oder Backbone-Tag
// OUTPUT: ml.Tensor (Breite, Hoehe, Kanaele, Batch)
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: golang.org/x/sync/errgroup, ml, model/models/adaptor
// HINWEISE: Reihenfolge: Alpha entfernen, quadratisch zuschneiden, skalieren, normalisieren

package vision

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/model/models/adaptor"
)

// ErrNoImages wird zurueckgegeben wenn ein leerer Batch verarbeitet wird
var ErrNoImages = errors.New("vision: no images")

// Processor wandelt Bilder in Pixelwerte fuer einen Vision-Encoder
type Processor struct {
	opts PreprocessOptions
}

// NewProcessor erstellt einen Processor aus den Default-Optionen und opts
func NewProcessor(opts ...Option) (*Processor, error) {
	o := DefaultPreprocessOptions()
	o.Apply(opts...)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &Processor{opts: o}, nil
}

// ForBackbone waehlt die Vorverarbeitung passend zum Backbone-Tag:
// autoencoder erhaelt einen Roentgen-Kanal, convolutional drei identische
// Roentgen-Kanaele und transformer CLIP-normalisiertes RGB.
func ForBackbone(tag string, opts ...Option) (*Processor, error) {
	backbone, err := adaptor.ParseBackbone(tag)
	if err != nil {
		return nil, err
	}

	var preset []Option
	switch backbone {
	case adaptor.BackboneAutoencoder:
		preset = []Option{WithChannels(1)}
	case adaptor.BackboneConvolutional:
		preset = []Option{WithChannels(3)}
	default:
		preset = []Option{WithMeanStd(ClipMean, ClipStd)}
	}

	return NewProcessor(append(preset, opts...)...)
}

// Options gibt die aktive Konfiguration zurueck
func (p *Processor) Options() PreprocessOptions {
	return p.opts
}

// Pixels verarbeitet ein Bild zu Kanaele*Groesse*Groesse Werten, Kanal fuer
// Kanal, zeilenweise
func (p *Processor) Pixels(img *ImageInput) ([]float32, error) {
	img = SquareCrop(CompositeWithColor(img, p.opts.Background))
	img, err := ResizeImage(img, p.opts.Size, p.opts.Size)
	if err != nil {
		return nil, err
	}

	if p.opts.Normalization == NormalizeMeanStd {
		return NormalizeRGB(img, p.opts.Mean, p.opts.Std), nil
	}

	plane := NormalizeXRay(img)
	pixels := make([]float32, 0, len(plane)*p.opts.Channels)
	for range p.opts.Channels {
		pixels = append(pixels, plane...)
	}
	return pixels, nil
}

// Preprocess verarbeitet einen Batch zu einem Tensor (Groesse, Groesse,
// Kanaele, Batch). Bilder werden parallel verarbeitet.
func (p *Processor) Preprocess(ctx ml.Context, images ...*ImageInput) (ml.Tensor, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}

	size := p.opts.Channels * p.opts.Size * p.opts.Size
	pixels := make([]float32, size*len(images))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, img := range images {
		g.Go(func() error {
			values, err := p.Pixels(img)
			if err != nil {
				return fmt.Errorf("vision: image %d: %w", i, err)
			}
			copy(pixels[i*size:(i+1)*size], values)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ctx.Input().FromFloats(pixels, p.opts.Size, p.opts.Size, p.opts.Channels, len(images)), nil
}
