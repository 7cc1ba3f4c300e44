package usecase

import "testing"

func TestMatchesMagicBytes(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		data     []byte
		match    bool
		known    bool
	}{
		{"pdf", "application/pdf", []byte("%PDF-1.7\n"), true, true},
		{"jpeg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, true, true},
		{"png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, true, true},
		{"webp", "image/webp", []byte("RIFF\x10\x00\x00\x00WEBPVP8 "), true, true},
		{"tiff little endian", "image/tiff", []byte{0x49, 0x49, 0x2A, 0x00, 0x08}, true, true},
		{"tiff big endian", "image/tiff", []byte{0x4D, 0x4D, 0x00, 0x2A, 0x08}, true, true},
		{"gif data claimed as pdf", "application/pdf", []byte("GIF89a"), false, true},
		{"truncated webp header", "image/webp", []byte("RIFF"), false, true},
		{"unknown mime type", "application/msword", []byte("anything"), false, false},
		{"empty data", "application/pdf", nil, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			match, known := matchesMagicBytes(tc.mimeType, tc.data)
			if match != tc.match || known != tc.known {
				t.Fatalf("matchesMagicBytes(%s) = (%v, %v), want (%v, %v)", tc.mimeType, match, known, tc.match, tc.known)
			}
		})
	}
}
