// Package decode classifies and decodes image byte slices into
// GPU-uploadable pixel payloads. It performs no I/O and holds no state, so
// it is safe to call concurrently from any number of worker goroutines.
package decode

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/bmp"
)

// Format identifies how DecodedImage.Pixels should be interpreted.
type Format int

const (
	FormatUnknown Format = iota
	FormatRGBA8
	FormatRGB8
	FormatDDS
)

// DecodedImage is the result of a successful Decode. Its invariants:
// Format == FormatDDS iff IsDDS is true; when Format != FormatUnknown,
// Width > 0, Height > 0, and Pixels is non-empty; MipLevels >= 1; for
// FormatRGBA8, len(Pixels) == 4*Width*Height; for FormatDDS, Pixels holds
// the original file bytes verbatim (header plus mip chain) and MipLevels
// mirrors the header's value, clamped to at least 1.
type DecodedImage struct {
	Pixels        []byte
	Width         int32
	Height        int32
	Format        Format
	IsDDS         bool
	MipLevels     int32
	GPUFormatHint uint32
}

const (
	ddsMagic     = 0x20534444 // "DDS " little-endian
	ddsHeaderLen = 128
)

// ddsHeader mirrors the first 76 bytes of the 128-byte fixed DDS prefix
// (magic through the 11 reserved words); the rest of the prefix is not
// read. Fields beyond MipMapCount are not interpreted by this package; they
// are passed through untouched as part of Pixels for the GPU uploader to
// parse.
type ddsHeader struct {
	Magic             uint32
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
}

// Decode classifies data as DDS or a general raster format and decodes it
// into out. It returns false, leaving out cleared, if data is empty or no
// path can decode it.
func Decode(data []byte, out *DecodedImage) bool {
	if len(data) == 0 {
		*out = DecodedImage{}
		return false
	}

	*out = DecodedImage{}

	if decodeDDS(data, out) {
		return true
	}

	return decodeGeneral(data, out)
}

func decodeDDS(data []byte, out *DecodedImage) bool {
	if len(data) < 4 {
		return false
	}
	if binary.LittleEndian.Uint32(data[:4]) != ddsMagic {
		return false
	}
	if len(data) < ddsHeaderLen {
		return false
	}

	var hdr ddsHeader
	_ = binary.Read(bytes.NewReader(data[:ddsHeaderLen]), binary.LittleEndian, &hdr)

	if int32(hdr.Width) <= 0 || int32(hdr.Height) <= 0 {
		return false
	}

	mipLevels := int32(hdr.MipMapCount)
	if mipLevels < 1 {
		mipLevels = 1
	}

	out.Width = int32(hdr.Width)
	out.Height = int32(hdr.Height)
	out.MipLevels = mipLevels
	out.IsDDS = true
	out.Format = FormatDDS
	out.Pixels = append([]byte(nil), data...)

	return true
}

// decodeGeneral dispatches to the standard library's PNG/JPEG decoders,
// golang.org/x/image/bmp for BMP, and the in-package TGA reader, always
// requesting four-channel output.
func decodeGeneral(data []byte, out *DecodedImage) bool {
	img, ok := decodeAny(data)
	if !ok {
		return false
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return false
	}

	pixels := make([]byte, 4*width*height)
	offset := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			pixels[offset+0] = byte(r >> 8)
			pixels[offset+1] = byte(g >> 8)
			pixels[offset+2] = byte(b >> 8)
			pixels[offset+3] = byte(a >> 8)
			offset += 4
		}
	}

	out.Width = int32(width)
	out.Height = int32(height)
	out.Format = FormatRGBA8
	out.IsDDS = false
	out.MipLevels = 1
	out.Pixels = pixels
	return true
}

// decodeAny tries each general-purpose codec in turn. TGA is attempted last
// since, unlike PNG/JPEG/BMP, it has no reliable magic byte to sniff first.
func decodeAny(data []byte) (image.Image, bool) {
	if img, err := png.Decode(bytes.NewReader(data)); err == nil {
		return img, true
	}
	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, true
	}
	if img, err := bmp.Decode(bytes.NewReader(data)); err == nil {
		return img, true
	}
	if img, ok := decodeTGA(data); ok {
		return img, true
	}
	return nil, false
}
