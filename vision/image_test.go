// MODUL: image_test
// ZWECK: Tests fuer Bild-Lade- und Geometriefunktionen
// INPUT: Synthetische Bilder und PNG/BMP/TIFF-Bytes
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, image, image/png, golang.org/x/image
// HINWEISE: Testet Dekodierung, Resize, Crop und Composite

package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// createRGBA erzeugt ein einfarbiges Testbild
func createRGBA(w, h int, c color.Color) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rgba.Set(x, y, c)
		}
	}
	return rgba
}

// createPNGBytes erzeugt PNG-Bytes aus einem Testbild
func createPNGBytes(w, h int, c color.Color) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, createRGBA(w, h, c))
	return buf.Bytes()
}

func TestLoadImageFromBytes(t *testing.T) {
	pngData := createPNGBytes(100, 50, color.RGBA{255, 0, 0, 255})

	img, err := LoadImageFromBytes(pngData)
	if err != nil {
		t.Fatalf("LoadImageFromBytes() error = %v", err)
	}

	if img.Width != 100 || img.Height != 50 {
		t.Errorf("Groesse = %dx%d, erwartet 100x50", img.Width, img.Height)
	}

	if img.Format != FormatPNG {
		t.Errorf("Format = %v, erwartet %v", img.Format, FormatPNG)
	}
}

func TestLoadImageFromBytesFormats(t *testing.T) {
	src := createRGBA(8, 4, color.RGBA{10, 20, 30, 255})

	var bmpBuf, tiffBuf bytes.Buffer
	if err := bmp.Encode(&bmpBuf, src); err != nil {
		t.Fatal(err)
	}
	if err := tiff.Encode(&tiffBuf, src, nil); err != nil {
		t.Fatal(err)
	}

	for format, data := range map[ImageFormat][]byte{
		FormatBMP:  bmpBuf.Bytes(),
		FormatTIFF: tiffBuf.Bytes(),
	} {
		t.Run(string(format), func(t *testing.T) {
			img, err := LoadImageFromBytes(data)
			if err != nil {
				t.Fatalf("LoadImageFromBytes() error = %v", err)
			}
			if img.Format != format || img.Width != 8 || img.Height != 4 {
				t.Errorf("got %s %dx%d, erwartet %s 8x4", img.Format, img.Width, img.Height, format)
			}
			if r, _, _, _ := img.Image.At(3, 2).RGBA(); r>>8 != 10 {
				t.Errorf("Rot = %d, erwartet 10", r>>8)
			}
		})
	}
}

func TestLoadImageFromBytesInvalid(t *testing.T) {
	_, err := LoadImageFromBytes([]byte{0x00, 0x00, 0x00, 0x00})
	if err == nil {
		t.Error("Erwartet Fehler bei ungueltigem Format")
	}

	// gueltige Signatur, kaputter Inhalt
	_, err = LoadImageFromBytes([]byte{0x89, 0x50, 0x4E, 0x47, 0x00, 0x00})
	if err == nil {
		t.Error("Erwartet Fehler bei kaputtem PNG")
	}
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(bytes.NewReader(createPNGBytes(80, 60, color.White)))
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}

	if img.Width != 80 || img.Height != 60 {
		t.Errorf("Groesse = %dx%d, erwartet 80x60", img.Width, img.Height)
	}
}

func TestNewImageInputOffset(t *testing.T) {
	gray := image.NewGray(image.Rect(5, 5, 9, 7))
	gray.SetGray(5, 5, color.Gray{Y: 200})

	img := NewImageInput(gray, FormatUnknown)
	if img.Image.Bounds().Min != (image.Point{}) {
		t.Errorf("Ursprung = %v, erwartet (0,0)", img.Image.Bounds().Min)
	}
	if r, _, _, _ := img.Image.At(0, 0).RGBA(); r>>8 != 200 {
		t.Errorf("Wert = %d, erwartet 200", r>>8)
	}
}

func TestResizeImage(t *testing.T) {
	img, _ := LoadImageFromBytes(createPNGBytes(100, 100, color.White))

	resized, err := ResizeImage(img, 50, 50)
	if err != nil {
		t.Fatalf("ResizeImage() error = %v", err)
	}

	if resized.Width != 50 || resized.Height != 50 {
		t.Errorf("Groesse = %dx%d, erwartet 50x50", resized.Width, resized.Height)
	}

	if r, _, _, a := resized.Image.At(25, 25).RGBA(); r>>8 != 255 || a>>8 != 255 {
		t.Errorf("Pixel = (%d, %d), erwartet weiss", r>>8, a>>8)
	}
}

func TestResizeImageInvalidSize(t *testing.T) {
	img, _ := LoadImageFromBytes(createPNGBytes(100, 100, color.White))

	if _, err := ResizeImage(img, 0, 50); err == nil {
		t.Error("Erwartet Fehler bei Breite 0")
	}

	if _, err := ResizeImage(img, 50, -1); err == nil {
		t.Error("Erwartet Fehler bei negativer Hoehe")
	}
}

func TestComposite(t *testing.T) {
	img := NewImageInput(createRGBA(10, 10, color.NRGBA{255, 0, 0, 128}), FormatPNG)
	composited := Composite(img)

	r, g, _, a := composited.Image.At(5, 5).RGBA()
	if a>>8 != 255 {
		t.Errorf("Alpha = %d, erwartet 255", a>>8)
	}

	// Rot bleibt voll, Gruen kommt vom weissen Hintergrund
	if r>>8 != 255 || g>>8 < 120 || g>>8 > 135 {
		t.Errorf("Farbe = (%d, %d), erwartet (255, ~127)", r>>8, g>>8)
	}
}

func TestCenterCrop(t *testing.T) {
	rgba := createRGBA(6, 4, color.Black)
	rgba.Set(2, 1, color.White)
	img := NewImageInput(rgba, FormatPNG)

	cropped, err := CenterCrop(img, 2, 2)
	if err != nil {
		t.Fatalf("CenterCrop() error = %v", err)
	}

	if cropped.Width != 2 || cropped.Height != 2 {
		t.Errorf("Groesse = %dx%d, erwartet 2x2", cropped.Width, cropped.Height)
	}

	// Offset (2, 1): das weisse Pixel liegt oben links
	if r, _, _, _ := cropped.Image.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("Pixel (0,0) = %d, erwartet 255", r>>8)
	}
}

func TestCenterCropTooLarge(t *testing.T) {
	img, _ := LoadImageFromBytes(createPNGBytes(50, 50, color.White))

	if _, err := CenterCrop(img, 100, 100); err == nil {
		t.Error("Erwartet Fehler wenn Crop groesser als Bild")
	}
}

func TestSquareCrop(t *testing.T) {
	tests := []struct {
		w, h, side int
	}{
		{200, 100, 100},
		{100, 300, 100},
		{64, 64, 64},
	}

	for _, tt := range tests {
		img := NewImageInput(createRGBA(tt.w, tt.h, color.White), FormatPNG)
		if got := SquareCrop(img); got.Width != tt.side || got.Height != tt.side {
			t.Errorf("SquareCrop(%dx%d) = %dx%d, erwartet %d", tt.w, tt.h, got.Width, got.Height, tt.side)
		}
	}
}
