package jxr

import (
	"errors"
	"image"
	"image/color"
	"testing"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/stretchr/testify/require"
)

// samplePlane builds a w x h plane filled by f.
func samplePlane(w, h int, f func(x, y int) int32) *hwyimage.Image[int32] {
	img := hwyimage.NewImage[int32](w, h)
	for y := range h {
		row := img.Row(y)
		for x := range w {
			row[x] = f(x, y)
		}
	}
	return img
}

func TestRasterFormat(t *testing.T) {
	tests := []struct {
		color      ColorFormat
		depth      BitDepth
		components int
		alpha      bool
		want       PixelFormat
		wantErr    bool
	}{
		{ColorY, BD8, 1, false, FormatGray8, false},
		{ColorY, BD16, 1, false, FormatGray16, false},
		{ColorY, BD1White1, 1, false, FormatBlackWhite, false},
		{ColorY, BD1Black1, 1, false, FormatBlackWhite, false},
		{ColorRGB, BD8, 3, false, FormatRGB24, false},
		{ColorRGB, BD16, 3, false, FormatRGB48, false},
		{ColorRGB, BD8, 3, true, FormatRGBA32, false},
		{ColorRGB, BD16, 3, true, FormatRGBA64, false},
		{ColorNComponent, BD8, 1, false, FormatGray8, false},
		{ColorNComponent, BD8, 3, false, FormatRGB24, false},
		{ColorNComponent, BD8, 4, false, FormatRGBA32, false},
		{ColorY, BD16F, 1, false, 0, true},
		{ColorRGB, BD565, 3, false, 0, true},
		{ColorCMYK, BD8, 4, false, 0, true},
		{ColorNComponent, BD8, 2, false, 0, true},
	}
	for _, tt := range tests {
		h := &Header{OutputColor: tt.color, OutputBitDepth: tt.depth}
		got, err := rasterFormat(h, tt.components, tt.alpha)
		if tt.wantErr {
			require.True(t, errors.Is(err, ErrUnsupportedFormat), "%s %s: got %v", tt.color, tt.depth, err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got, "%s %s components=%d alpha=%v", tt.color, tt.depth, tt.components, tt.alpha)
	}
}

func TestPackRasterBlackWhite(t *testing.T) {
	// Ten pixels per row: odd columns white.
	plane := samplePlane(10, 2, func(x, y int) int32 { return int32((x + y) & 1) })
	r := packRaster(FormatBlackWhite, []*hwyimage.Image[int32]{plane})

	require.Equal(t, 2, r.Stride)
	require.Equal(t, []byte{0x55, 0x40, 0xaa, 0x80}, r.Pix)
	require.Equal(t, color.Gray{Y: 0xff}, r.At(1, 0))
	require.Equal(t, color.Gray{}, r.At(0, 0))
	require.Equal(t, color.Gray{Y: 0xff}, r.At(8, 1))

	gray, ok := r.Image().(*image.Gray)
	require.True(t, ok)
	require.Equal(t, uint8(0xff), gray.GrayAt(9, 0).Y)
	require.Equal(t, uint8(0), gray.GrayAt(9, 1).Y)
}

func TestPackRasterInterleaved(t *testing.T) {
	r := samplePlane(3, 2, func(x, y int) int32 { return int32(10*y + x) })
	g := samplePlane(3, 2, func(x, y int) int32 { return 100 })
	b := samplePlane(3, 2, func(x, y int) int32 { return 200 })
	a := samplePlane(3, 2, func(x, y int) int32 { return int32(x * 50) })

	rgb := packRaster(FormatRGB24, []*hwyimage.Image[int32]{r, g, b})
	require.Equal(t, 9, rgb.Stride)
	require.Equal(t, []byte{
		0, 100, 200, 1, 100, 200, 2, 100, 200,
		10, 100, 200, 11, 100, 200, 12, 100, 200,
	}, rgb.Pix)
	require.Equal(t, color.NRGBA{R: 12, G: 100, B: 200, A: 0xff}, rgb.At(2, 1))

	nrgba, ok := rgb.Image().(*image.NRGBA)
	require.True(t, ok)
	require.Equal(t, color.NRGBA{R: 11, G: 100, B: 200, A: 0xff}, nrgba.NRGBAAt(1, 1))

	rgba := packRaster(FormatRGBA32, []*hwyimage.Image[int32]{r, g, b, a})
	require.Equal(t, 12, rgba.Stride)
	require.Equal(t, color.NRGBA{R: 2, G: 100, B: 200, A: 100}, rgba.At(2, 0))
}

func TestPackRasterWide(t *testing.T) {
	y := samplePlane(2, 1, func(x, _ int) int32 { return int32(0x1234 + x) })
	gray := packRaster(FormatGray16, []*hwyimage.Image[int32]{y})
	require.Equal(t, []byte{0x12, 0x34, 0x12, 0x35}, gray.Pix)
	require.Equal(t, color.Gray16{Y: 0x1235}, gray.At(1, 0))
	require.Equal(t, color.Gray16Model, gray.ColorModel())

	img, ok := gray.Image().(*image.Gray16)
	require.True(t, ok)
	require.Equal(t, uint16(0x1234), img.Gray16At(0, 0).Y)

	ch := samplePlane(1, 1, func(_, _ int) int32 { return 0xffff })
	rgb := packRaster(FormatRGB48, []*hwyimage.Image[int32]{ch, y, ch})
	require.Equal(t, []byte{0xff, 0xff, 0x12, 0x34, 0xff, 0xff}, rgb.Pix[:6])
	require.Equal(t, color.NRGBA64{R: 0xffff, G: 0x1234, B: 0xffff, A: 0xffff}, rgb.At(0, 0))
	require.Equal(t, color.NRGBA64Model, rgb.ColorModel())
}

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		format   PixelFormat
		name     string
		channels int
		row      int // bytes in a 9 pixel row
	}{
		{FormatBlackWhite, "BlackWhite", 1, 2},
		{FormatGray8, "Gray8", 1, 9},
		{FormatGray16, "Gray16", 1, 18},
		{FormatRGB24, "RGB24", 3, 27},
		{FormatRGB48, "RGB48", 3, 54},
		{FormatRGBA32, "RGBA32", 4, 36},
		{FormatRGBA64, "RGBA64", 4, 72},
	}
	for _, tt := range tests {
		require.Equal(t, tt.name, tt.format.String())
		require.Equal(t, tt.channels, tt.format.Channels())
		require.Equal(t, tt.row, tt.format.rowBytes(9))
	}
	require.Equal(t, "PixelFormat(?)", PixelFormat(42).String())
}
