package loader

import (
	"strings"

	"texturestream/pkg/decode"
)

// LoadRequest is immutable once pushed onto a worker's request queue.
type LoadRequest struct {
	Filename    string
	RequestID   uint32
	DecodeImage bool
}

// LoadResult is produced by exactly one worker and consumed by exactly one
// Fetch call. If HasDecodedImage is true, FileBytes is empty — the decoder
// consumed the raw payload. If false, FileBytes holds the raw archive
// payload, either because decode wasn't requested or because it failed;
// those two cases are indistinguishable to the caller by design.
type LoadResult struct {
	Filename        string
	RequestID       uint32
	FileBytes       []byte
	DecodedImage    decode.DecodedImage
	HasDecodedImage bool
}

// decodableExtensions are the case-insensitive filename suffixes that imply
// decode_image = true at submission time, keeping filename parsing off the
// worker hot path.
var decodableExtensions = []string{".dds", ".png", ".jpg", ".jpeg", ".tga", ".bmp"}

func shouldDecode(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range decodableExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
