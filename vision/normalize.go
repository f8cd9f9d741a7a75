// MODUL: normalize
// ZWECK: Normalisierung von Bildern zu Pixelwerten
// INPUT: ImageInput, Normalisierungs-Parameter (mean, std) oder Roentgen-Skala
// OUTPUT: float32-Slices im CHW Layout
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: keine (nur Standardbibliothek)
// HINWEISE: Roentgen-Normalisierung bildet [0, maxVal] auf [-1024, 1024] ab

package vision

// Standard-Normalisierungswerte fuer verschiedene Modelle
var (
	// ImageNet Default (ResNet, EfficientNet, etc.)
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}

	// CLIP Default
	ClipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	ClipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// XRayScale ist der Betrag der Grenzen des Roentgen-Wertebereichs
const XRayScale = 1024

// XRayNormalize bildet v aus [0, maxVal] auf [-1024, 1024] ab
func XRayNormalize(v, maxVal float32) float32 {
	return (2*(v/maxVal) - 1) * XRayScale
}

// NormalizeRGB normalisiert ein Bild mit gegebenen mean/std Werten
// Gibt einen float32-Slice im CHW Format zurueck (Channel-First)
func NormalizeRGB(img *ImageInput, mean, std [3]float32) []float32 {
	bounds := img.Image.Bounds()
	size := bounds.Dx() * bounds.Dy()

	result := make([]float32, size*3)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b := extractRGB(img, x, y)
			result[idx] = (r - mean[0]) / std[0]
			result[size+idx] = (g - mean[1]) / std[1]
			result[2*size+idx] = (b - mean[2]) / std[2]
			idx++
		}
	}

	return result
}

// NormalizeXRay liest den ersten Kanal und normalisiert ihn auf den
// Roentgen-Wertebereich. Ergebnis: eine Ebene H*W.
func NormalizeXRay(img *ImageInput) []float32 {
	bounds := img.Image.Bounds()
	result := make([]float32, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			off := img.Image.PixOffset(x, y)
			result = append(result, XRayNormalize(float32(img.Image.Pix[off]), 255))
		}
	}
	return result
}

// extractRGB holt RGB-Werte als float32 im Bereich [0,1]
func extractRGB(img *ImageInput, x, y int) (float32, float32, float32) {
	off := img.Image.PixOffset(x, y)
	pix := img.Image.Pix[off : off+3]
	return float32(pix[0]) / 255.0, float32(pix[1]) / 255.0, float32(pix[2]) / 255.0
}
