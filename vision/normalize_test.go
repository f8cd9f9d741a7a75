// MODUL: normalize_test
// ZWECK: Tests fuer Normalisierungsfunktionen
// INPUT: Synthetische Bilder
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, image
// HINWEISE: Testet CHW Layout, mean/std und Roentgen-Skala

package vision

import (
	"image/color"
	"testing"
)

func TestXRayNormalize(t *testing.T) {
	tests := []struct {
		v, want float32
	}{
		{0, -1024},
		{255, 1024},
		{127.5, 0},
	}

	for _, tt := range tests {
		if got := XRayNormalize(tt.v, 255); got != tt.want {
			t.Errorf("XRayNormalize(%v) = %v, erwartet %v", tt.v, got, tt.want)
		}
	}
}

func TestNormalizeXRay(t *testing.T) {
	rgba := createRGBA(2, 1, color.Black)
	rgba.Set(1, 0, color.RGBA{255, 0, 0, 255})
	img := NewImageInput(rgba, FormatPNG)

	got := NormalizeXRay(img)
	if len(got) != 2 || got[0] != -1024 || got[1] != 1024 {
		t.Errorf("NormalizeXRay() = %v, erwartet [-1024 1024]", got)
	}
}

func TestNormalizeRGB(t *testing.T) {
	// 2x1 Bild: rot, blau
	rgba := createRGBA(2, 1, color.RGBA{255, 0, 0, 255})
	rgba.Set(1, 0, color.RGBA{0, 0, 255, 255})
	img := NewImageInput(rgba, FormatPNG)

	half := [3]float32{0.5, 0.5, 0.5}
	result := NormalizeRGB(img, half, half)

	// CHW: R-Ebene, G-Ebene, B-Ebene
	want := []float32{1, -1, -1, -1, -1, 1}
	if len(result) != len(want) {
		t.Fatalf("Laenge = %d, erwartet %d", len(result), len(want))
	}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("result[%d] = %f, erwartet %f", i, result[i], want[i])
		}
	}
}

func TestNormalizeRGBClip(t *testing.T) {
	img := NewImageInput(createRGBA(2, 2, color.RGBA{127, 127, 127, 255}), FormatPNG)
	result := NormalizeRGB(img, ClipMean, ClipStd)

	// (127/255 - 0.4815) / 0.2686 ~ 0.0617
	if result[0] < 0.05 || result[0] > 0.07 {
		t.Errorf("Normalisierter Wert = %f, erwartet ~0.062", result[0])
	}
}
