package decode

import "image"

// decodeTGA parses an uncompressed or RLE-compressed truecolor or
// grayscale Targa image. This is a small, purpose-built reader rather than
// a pulled-in library: TGA has no reliable ecosystem package in wide use,
// and the format itself is simple enough that hand-rolling this common
// subset is the pragmatic choice.
const tgaHeaderLen = 18

const (
	tgaImageTypeTrueColor    = 2
	tgaImageTypeGrayscale    = 3
	tgaImageTypeRLETrueColor = 10
	tgaImageTypeRLEGrayscale = 11
)

func decodeTGA(data []byte) (image.Image, bool) {
	if len(data) < tgaHeaderLen {
		return nil, false
	}

	idLength := int(data[0])
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	pixelDepth := int(data[16])
	descriptor := data[17]

	if width <= 0 || height <= 0 {
		return nil, false
	}

	var bytesPerPixel int
	switch pixelDepth {
	case 24, 32:
		bytesPerPixel = pixelDepth / 8
	case 8:
		bytesPerPixel = 1
	default:
		return nil, false
	}

	offset := tgaHeaderLen + idLength
	if offset > len(data) {
		return nil, false
	}
	pixelData := data[offset:]

	var raw []byte
	switch imageType {
	case tgaImageTypeTrueColor, tgaImageTypeGrayscale:
		need := width * height * bytesPerPixel
		if len(pixelData) < need {
			return nil, false
		}
		raw = pixelData[:need]
	case tgaImageTypeRLETrueColor, tgaImageTypeRLEGrayscale:
		var ok bool
		raw, ok = decodeTGARLE(pixelData, width*height, bytesPerPixel)
		if !ok {
			return nil, false
		}
	default:
		// Color-mapped and unrecognized types are outside the subset this
		// decoder covers.
		return nil, false
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	// Bit 5 of the descriptor byte: 0 = bottom-up (TGA's default origin),
	// 1 = top-down.
	topDown := descriptor&0x20 != 0

	for row := 0; row < height; row++ {
		srcRow := row
		dstRow := height - 1 - row
		if topDown {
			dstRow = row
		}

		for col := 0; col < width; col++ {
			srcOff := (srcRow*width + col) * bytesPerPixel
			var r, g, b, a uint8
			switch bytesPerPixel {
			case 1:
				v := raw[srcOff]
				r, g, b, a = v, v, v, 0xff
			case 3:
				b, g, r = raw[srcOff], raw[srcOff+1], raw[srcOff+2]
				a = 0xff
			case 4:
				b, g, r, a = raw[srcOff], raw[srcOff+1], raw[srcOff+2], raw[srcOff+3]
			}

			dstOff := img.PixOffset(col, dstRow)
			img.Pix[dstOff+0] = r
			img.Pix[dstOff+1] = g
			img.Pix[dstOff+2] = b
			img.Pix[dstOff+3] = a
		}
	}

	return img, true
}

// decodeTGARLE expands run-length-encoded TGA pixel data into pixelCount
// raw pixels of bytesPerPixel each.
func decodeTGARLE(data []byte, pixelCount, bytesPerPixel int) ([]byte, bool) {
	out := make([]byte, 0, pixelCount*bytesPerPixel)
	pos := 0

	for len(out) < pixelCount*bytesPerPixel {
		if pos >= len(data) {
			return nil, false
		}
		packet := data[pos]
		pos++
		count := int(packet&0x7f) + 1

		if packet&0x80 != 0 {
			// Run-length packet: one pixel repeated count times.
			if pos+bytesPerPixel > len(data) {
				return nil, false
			}
			pixel := data[pos : pos+bytesPerPixel]
			pos += bytesPerPixel
			for i := 0; i < count; i++ {
				out = append(out, pixel...)
			}
		} else {
			// Raw packet: count distinct pixels follow.
			need := count * bytesPerPixel
			if pos+need > len(data) {
				return nil, false
			}
			out = append(out, data[pos:pos+need]...)
			pos += need
		}
	}

	return out[:pixelCount*bytesPerPixel], true
}
