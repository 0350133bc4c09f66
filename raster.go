package jxr

import (
	"encoding/binary"
	"image"
	"image/color"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
)

// PixelFormat is the packed layout of a Raster.
type PixelFormat int

const (
	FormatBlackWhite PixelFormat = iota // 1 bit per pixel, MSB first, 1 is white
	FormatGray8
	FormatGray16 // Big-endian
	FormatRGB24
	FormatRGB48 // Big-endian
	FormatRGBA32
	FormatRGBA64 // Big-endian, not premultiplied
)

var pixelFormatNames = [...]string{
	FormatBlackWhite: "BlackWhite",
	FormatGray8:      "Gray8",
	FormatGray16:     "Gray16",
	FormatRGB24:      "RGB24",
	FormatRGB48:      "RGB48",
	FormatRGBA32:     "RGBA32",
	FormatRGBA64:     "RGBA64",
}

func (f PixelFormat) String() string {
	if int(f) < len(pixelFormatNames) {
		return pixelFormatNames[f]
	}
	return "PixelFormat(?)"
}

// Channels returns the samples per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatRGB24, FormatRGB48:
		return 3
	case FormatRGBA32, FormatRGBA64:
		return 4
	}
	return 1
}

// rowBytes returns the packed size of a row of width pixels.
func (f PixelFormat) rowBytes(width int) int {
	switch f {
	case FormatBlackWhite:
		return (width + 7) / 8
	case FormatGray8, FormatRGB24, FormatRGBA32:
		return width * f.Channels()
	}
	return width * f.Channels() * 2
}

// Raster is a decoded image in one of the packed pixel formats.
type Raster struct {
	Format PixelFormat
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func newRaster(format PixelFormat, width, height int) *Raster {
	stride := format.rowBytes(width)
	return &Raster{
		Format: format,
		Pix:    make([]byte, stride*height),
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// ColorModel implements image.Image.
func (r *Raster) ColorModel() color.Model {
	switch r.Format {
	case FormatBlackWhite, FormatGray8:
		return color.GrayModel
	case FormatGray16:
		return color.Gray16Model
	case FormatRGB24, FormatRGBA32:
		return color.NRGBAModel
	}
	return color.NRGBA64Model
}

// Bounds implements image.Image.
func (r *Raster) Bounds() image.Rectangle { return r.Rect }

// At implements image.Image.
func (r *Raster) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(r.Rect)) {
		return color.NRGBA{}
	}
	x -= r.Rect.Min.X
	row := r.Pix[(y-r.Rect.Min.Y)*r.Stride:]
	switch r.Format {
	case FormatBlackWhite:
		if row[x/8]&(0x80>>(x%8)) != 0 {
			return color.Gray{Y: 0xff}
		}
		return color.Gray{}
	case FormatGray8:
		return color.Gray{Y: row[x]}
	case FormatGray16:
		return color.Gray16{Y: binary.BigEndian.Uint16(row[x*2:])}
	case FormatRGB24:
		p := row[x*3:]
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	case FormatRGBA32:
		p := row[x*4:]
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case FormatRGB48:
		p := row[x*6:]
		return color.NRGBA64{
			R: binary.BigEndian.Uint16(p),
			G: binary.BigEndian.Uint16(p[2:]),
			B: binary.BigEndian.Uint16(p[4:]),
			A: 0xffff,
		}
	}
	p := row[x*8:]
	return color.NRGBA64{
		R: binary.BigEndian.Uint16(p),
		G: binary.BigEndian.Uint16(p[2:]),
		B: binary.BigEndian.Uint16(p[4:]),
		A: binary.BigEndian.Uint16(p[6:]),
	}
}

// Image converts r to the closest standard library image type.
func (r *Raster) Image() image.Image {
	w, h := r.Rect.Dx(), r.Rect.Dy()
	switch r.Format {
	case FormatBlackWhite:
		img := image.NewGray(r.Rect)
		for y := range h {
			for x := range w {
				img.Pix[y*img.Stride+x] = r.At(r.Rect.Min.X+x, r.Rect.Min.Y+y).(color.Gray).Y
			}
		}
		return img
	case FormatGray8:
		img := image.NewGray(r.Rect)
		for y := range h {
			copy(img.Pix[y*img.Stride:y*img.Stride+w], r.Pix[y*r.Stride:])
		}
		return img
	case FormatGray16:
		img := image.NewGray16(r.Rect)
		for y := range h {
			copy(img.Pix[y*img.Stride:y*img.Stride+2*w], r.Pix[y*r.Stride:])
		}
		return img
	case FormatRGBA32:
		img := image.NewNRGBA(r.Rect)
		for y := range h {
			copy(img.Pix[y*img.Stride:y*img.Stride+4*w], r.Pix[y*r.Stride:])
		}
		return img
	case FormatRGBA64:
		img := image.NewNRGBA64(r.Rect)
		for y := range h {
			copy(img.Pix[y*img.Stride:y*img.Stride+8*w], r.Pix[y*r.Stride:])
		}
		return img
	case FormatRGB24:
		img := image.NewNRGBA(r.Rect)
		for y := range h {
			src, dst := r.Pix[y*r.Stride:], img.Pix[y*img.Stride:]
			for x := range w {
				copy(dst[x*4:x*4+3], src[x*3:x*3+3])
				dst[x*4+3] = 0xff
			}
		}
		return img
	}
	img := image.NewNRGBA64(r.Rect)
	for y := range h {
		src, dst := r.Pix[y*r.Stride:], img.Pix[y*img.Stride:]
		for x := range w {
			copy(dst[x*8:x*8+6], src[x*6:x*6+6])
			dst[x*8+6], dst[x*8+7] = 0xff, 0xff
		}
	}
	return img
}

// rasterFormat selects the pixel format for the decoded planes.
func rasterFormat(h *Header, components int, alpha bool) (PixelFormat, error) {
	out, depth := h.OutputColor, h.OutputBitDepth
	switch {
	case (out == ColorRGB && alpha) || (out == ColorNComponent && components == 4):
		switch depth {
		case BD8:
			return FormatRGBA32, nil
		case BD16:
			return FormatRGBA64, nil
		}
		return 0, unsupportedf("bit depth %s for RGBA", depth)
	case out == ColorRGB || (out == ColorNComponent && components == 3):
		switch depth {
		case BD8:
			return FormatRGB24, nil
		case BD16:
			return FormatRGB48, nil
		}
		return 0, unsupportedf("bit depth %s for RGB", depth)
	case out == ColorY || (out == ColorNComponent && components == 1):
		switch depth {
		case BD1White1, BD1Black1:
			return FormatBlackWhite, nil
		case BD8:
			return FormatGray8, nil
		case BD16:
			return FormatGray16, nil
		}
		return 0, unsupportedf("bit depth %s", depth)
	}
	return 0, unsupportedf("colour format %s with %d components", out, components)
}

// packRaster packs output channels, one sample plane per channel, into a
// raster of the given format. Samples are already clipped to the range of
// the format.
func packRaster(format PixelFormat, channels []*hwyimage.Image[int32]) *Raster {
	w, h := channels[0].Width(), channels[0].Height()
	r := newRaster(format, w, h)
	n := len(channels)
	for y := range h {
		dst := r.Pix[y*r.Stride : (y+1)*r.Stride]
		switch format {
		case FormatBlackWhite:
			src := channels[0].Row(y)
			for x := range w {
				if src[x] != 0 {
					dst[x/8] |= 0x80 >> (x % 8)
				}
			}
		case FormatGray8, FormatRGB24, FormatRGBA32:
			for c, img := range channels {
				src := img.Row(y)
				for x := range w {
					dst[x*n+c] = byte(src[x])
				}
			}
		default:
			for c, img := range channels {
				src := img.Row(y)
				for x := range w {
					binary.BigEndian.PutUint16(dst[(x*n+c)*2:], uint16(src[x]))
				}
			}
		}
	}
	return r
}
