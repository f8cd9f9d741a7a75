// MODUL: formats_test
// ZWECK: Tests fuer Format-Erkennung und Validierung
// INPUT: Test-Bytes mit verschiedenen Signaturen
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing
// HINWEISE: Testet Magic-Byte-Erkennung fuer alle Formate

package vision

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected ImageFormat
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, FormatJPEG},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, FormatPNG},
		{"WebP", []byte{'R', 'I', 'F', 'F', 0x00, 0x00, 0x00, 0x00, 'W', 'E', 'B', 'P'}, FormatWebP},
		{"RIFF ohne WebP", []byte{'R', 'I', 'F', 'F', 0x00, 0x00, 0x00, 0x00, 'W', 'A', 'V', 'E'}, FormatUnknown},
		{"BMP", []byte{'B', 'M', 0x36, 0x00, 0x00, 0x00}, FormatBMP},
		{"TIFF little endian", []byte{0x49, 0x49, 0x2A, 0x00, 0x08, 0x00}, FormatTIFF},
		{"TIFF big endian", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x00, 0x08}, FormatTIFF},
		{"Zu kurze Daten", []byte{0xFF, 0xD8}, FormatUnknown},
		{"Unbekanntes Format", []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, FormatUnknown},
		{"Leere Daten", []byte{}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormat(tt.data)
			if result != tt.expected {
				t.Errorf("DetectFormat() = %v, erwartet %v", result, tt.expected)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format ImageFormat
		want   error
	}{
		{FormatJPEG, nil},
		{FormatPNG, nil},
		{FormatWebP, nil},
		{FormatBMP, nil},
		{FormatTIFF, nil},
		{FormatUnknown, ErrUnknownFormat},
		{ImageFormat("gif"), ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if err := ValidateFormat(tt.format); !errors.Is(err, tt.want) {
				t.Errorf("ValidateFormat(%v) error = %v, erwartet %v", tt.format, err, tt.want)
			}
		})
	}
}

func TestImageFormatMimeType(t *testing.T) {
	tests := []struct {
		format   ImageFormat
		expected string
	}{
		{FormatJPEG, "image/jpeg"},
		{FormatPNG, "image/png"},
		{FormatWebP, "image/webp"},
		{FormatBMP, "image/bmp"},
		{FormatTIFF, "image/tiff"},
		{FormatUnknown, "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.MimeType(); got != tt.expected {
				t.Errorf("MimeType() = %v, erwartet %v", got, tt.expected)
			}
		})
	}
}
