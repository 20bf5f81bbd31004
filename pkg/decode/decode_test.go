package decode

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDDS(width, height, mipLevels uint32, extra int) []byte {
	buf := make([]byte, 128+extra)
	binary.LittleEndian.PutUint32(buf[0:4], ddsMagic)
	binary.LittleEndian.PutUint32(buf[12:16], height)
	binary.LittleEndian.PutUint32(buf[16:20], width)
	binary.LittleEndian.PutUint32(buf[28:32], mipLevels)
	return buf
}

func TestDecodeDDSRoundTrip(t *testing.T) {
	data := buildDDS(64, 64, 3, 128)

	var out DecodedImage
	ok := Decode(data, &out)

	require.True(t, ok)
	require.Equal(t, FormatDDS, out.Format)
	require.True(t, out.IsDDS)
	require.EqualValues(t, 64, out.Width)
	require.EqualValues(t, 64, out.Height)
	require.EqualValues(t, 3, out.MipLevels)
	require.Equal(t, data, out.Pixels, "DDS pixels must be byte-identical to the input")
}

func TestDecodeDDSClampsMipLevelsToOne(t *testing.T) {
	data := buildDDS(16, 16, 0, 0)

	var out DecodedImage
	ok := Decode(data, &out)

	require.True(t, ok)
	require.EqualValues(t, 1, out.MipLevels)
}

func TestDecodeDDSTooShortHeaderFails(t *testing.T) {
	data := make([]byte, 64)
	binary.LittleEndian.PutUint32(data[0:4], ddsMagic)

	var out DecodedImage
	ok := Decode(data, &out)
	require.False(t, ok)
}

func TestDecodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	var out DecodedImage
	ok := Decode(buf.Bytes(), &out)

	require.True(t, ok)
	require.Equal(t, FormatRGBA8, out.Format)
	require.False(t, out.IsDDS)
	require.EqualValues(t, 1, out.MipLevels)
	require.EqualValues(t, 4, out.Width)
	require.EqualValues(t, 3, out.Height)
	require.Len(t, out.Pixels, 4*4*3)
}

func TestDecodeMalformedPNGLikeDataFails(t *testing.T) {
	// 16 bytes that are not a valid PNG, DDS, BMP, JPEG, or TGA payload.
	data := make([]byte, 16)
	copy(data, []byte{0x89, 'P', 'N', 'G'})

	var out DecodedImage
	ok := Decode(data, &out)
	require.False(t, ok)
}

func TestDecodeEmptyInputFails(t *testing.T) {
	var out DecodedImage
	ok := Decode(nil, &out)
	require.False(t, ok)
	require.Equal(t, DecodedImage{}, out)
}

func buildUncompressedTGA(width, height int) []byte {
	header := make([]byte, tgaHeaderLen)
	header[2] = tgaImageTypeTrueColor
	header[12] = byte(width)
	header[13] = byte(width >> 8)
	header[14] = byte(height)
	header[15] = byte(height >> 8)
	header[16] = 24 // bits per pixel
	header[17] = 0x20 // top-down origin

	pixels := make([]byte, width*height*3)
	for i := 0; i < width*height; i++ {
		pixels[i*3+0] = 1 // B
		pixels[i*3+1] = 2 // G
		pixels[i*3+2] = 3 // R
	}

	return append(header, pixels...)
}

func TestDecodeUncompressedTGA(t *testing.T) {
	data := buildUncompressedTGA(3, 2)

	var out DecodedImage
	ok := Decode(data, &out)

	require.True(t, ok)
	require.Equal(t, FormatRGBA8, out.Format)
	require.EqualValues(t, 3, out.Width)
	require.EqualValues(t, 2, out.Height)
	require.Len(t, out.Pixels, 4*3*2)
	require.Equal(t, byte(3), out.Pixels[0], "red channel")
	require.Equal(t, byte(2), out.Pixels[1], "green channel")
	require.Equal(t, byte(1), out.Pixels[2], "blue channel")
	require.Equal(t, byte(255), out.Pixels[3], "alpha channel")
}

func TestDecodeRLETGA(t *testing.T) {
	width, height := 4, 1
	header := make([]byte, tgaHeaderLen)
	header[2] = tgaImageTypeRLETrueColor
	header[12] = byte(width)
	header[14] = byte(height)
	header[16] = 24
	header[17] = 0x20

	// One RLE packet: 4 identical BGR pixels.
	packet := []byte{0x80 | 0x03, 9, 8, 7}
	data := append(header, packet...)

	var out DecodedImage
	ok := Decode(data, &out)

	require.True(t, ok)
	require.EqualValues(t, 4, out.Width)
	require.Len(t, out.Pixels, 4*4*1)
	for i := 0; i < 4; i++ {
		require.Equal(t, byte(7), out.Pixels[i*4+0])
		require.Equal(t, byte(8), out.Pixels[i*4+1])
		require.Equal(t, byte(9), out.Pixels[i*4+2])
	}
}
