package usecase

import "bytes"

// fileSignature describes the leading magic bytes expected for a MIME type.
type fileSignature func(data []byte) bool

func prefixSignature(prefixes ...[]byte) fileSignature {
	return func(data []byte) bool {
		for _, p := range prefixes {
			if bytes.HasPrefix(data, p) {
				return true
			}
		}
		return false
	}
}

var magicByMime = map[string]fileSignature{
	"application/pdf": prefixSignature([]byte("%PDF")),
	"image/jpeg":      prefixSignature([]byte{0xFF, 0xD8, 0xFF}),
	"image/png":       prefixSignature([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}),
	"image/gif":       prefixSignature([]byte("GIF8")),
	"image/webp": func(data []byte) bool {
		return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
	},
	// Little-endian "II*\0" and big-endian "MM\0*" byte orders.
	"image/tiff": prefixSignature([]byte{0x49, 0x49, 0x2A, 0x00}, []byte{0x4D, 0x4D, 0x00, 0x2A}),
}

// matchesMagicBytes reports whether the file content matches the claimed MIME
// type. Unknown MIME types are not judged.
func matchesMagicBytes(mimeType string, data []byte) (match, known bool) {
	sig, ok := magicByMime[mimeType]
	if !ok {
		return false, false
	}
	return sig(data), true
}

var extensionsByMime = map[string][]string{
	"application/pdf": {"pdf"},
	"image/jpeg":      {"jpg", "jpeg"},
	"image/png":       {"png"},
	"image/gif":       {"gif"},
	"image/webp":      {"webp"},
	"image/tiff":      {"tif", "tiff"},
}
