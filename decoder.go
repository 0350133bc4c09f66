package jxr

import (
	"image"
	"io"
	"log/slog"

	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
	"github.com/pkg/errors"
)

// DefaultMaxPixels bounds the padded image area decoded when
// Options.MaxPixels is not set.
const DefaultMaxPixels = 1 << 28

var discardLogger = slog.New(slog.DiscardHandler)

// Options controls a decode. The zero value is ready to use.
type Options struct {
	// Logger receives warnings about recoverable inconsistencies such as
	// index table mismatches or trailing bytes. Nil discards them.
	Logger *slog.Logger

	// MaxPixels limits padded width times height. Zero or negative means
	// DefaultMaxPixels.
	MaxPixels int
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return discardLogger
	}
	return o.Logger
}

func (o *Options) maxPixels() int {
	if o == nil || o.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return o.MaxPixels
}

// decoder holds the state of one payload decode.
type decoder struct {
	r            *bitReader
	hdr          *Header
	planes       []*plane // Primary plane, then the alpha plane if present
	indexOffsets []uint64
	log          *slog.Logger
	maxPixels    int
}

func newDecoder(payload []byte, opts *Options) *decoder {
	return &decoder{
		r:         newBitReader(payload),
		log:       opts.logger(),
		maxPixels: opts.maxPixels(),
	}
}

// DecodeBytes decodes a JPEG XR file or a bare image payload.
func DecodeBytes(data []byte, opts *Options) (*Raster, error) {
	if !IsContainer(data) {
		return DecodeImage(data, opts)
	}
	c, err := ParseContainer(data, opts.logger())
	if err != nil {
		return nil, err
	}
	r, err := DecodeImage(c.Payload, opts)
	if err != nil {
		return nil, err
	}
	if w, h := r.Rect.Dx(), r.Rect.Dy(); w != c.Width || h != c.Height {
		opts.logger().Warn("image size differs from container",
			slog.Int("width", w), slog.Int("height", h),
			slog.Int("container_width", c.Width), slog.Int("container_height", c.Height))
	}
	return r, nil
}

// DecodeImage decodes a bare image payload starting with "WMPHOTO".
func DecodeImage(payload []byte, opts *Options) (*Raster, error) {
	d := newDecoder(payload, opts)
	if err := d.codedImage(); err != nil {
		return nil, err
	}
	if n := d.r.Remaining(); n > 0 {
		d.log.Warn("bytes remain after coded image",
			slog.Int("remaining", n), slog.Int("size", len(payload)))
	}

	for _, p := range d.planes {
		p.reconstruct()
		if err := p.formatOutput(); err != nil {
			return nil, err
		}
	}
	return d.raster()
}

// ParseHeader parses the image header of a bare payload.
func ParseHeader(payload []byte) (*Header, error) {
	return readImageHeader(newBitReader(payload))
}

// readHeaders parses the image header and every plane header.
func (d *decoder) readHeaders() error {
	var err error
	if d.hdr, err = readImageHeader(d.r); err != nil {
		return err
	}
	// Padded sizes are at least 16, and the division keeps the product
	// from overflowing.
	if w, h := d.hdr.PaddedWidth, d.hdr.PaddedHeight; w > d.maxPixels || h > d.maxPixels/w {
		return errors.Wrapf(ErrImageTooLarge, "%dx%d padded image", d.hdr.PaddedWidth, d.hdr.PaddedHeight)
	}

	d.planes = []*plane{newPlane(d.hdr, d.r, false)}
	if d.hdr.Alpha {
		d.planes = append(d.planes, newPlane(d.hdr, d.r, true))
	}
	for _, p := range d.planes {
		if err := p.readHeader(); err != nil {
			if p.alpha {
				return errors.Wrap(err, "alpha plane header")
			}
			return errors.Wrap(err, "plane header")
		}
	}
	return nil
}

// codedImage parses the headers and decodes every tile into the plane
// macroblocks.
func (d *decoder) codedImage() error {
	if err := d.readHeaders(); err != nil {
		return err
	}
	for _, p := range d.planes {
		p.allocMacroblocks()
	}

	if d.hdr.IndexTable {
		if err := d.readIndexTable(); err != nil {
			return err
		}
	}
	subsequent, err := d.readVLWEsc()
	if err != nil {
		return errors.Wrap(err, "SubsequentBytes")
	}
	if subsequent > 0 {
		n, err := d.readProfileLevel()
		if err != nil {
			return err
		}
		if subsequent != uint64(n) {
			d.log.Warn("subsequent bytes differ from profile bytes",
				slog.Uint64("subsequent", subsequent), slog.Int("profile", n))
			if subsequent < uint64(n) {
				return malformedf("SubsequentBytes %d shorter than profile records %d", subsequent, n)
			}
			if _, err := d.r.Extract(int(subsequent - uint64(n))); err != nil {
				return errors.Wrap(err, "additional bytes")
			}
		}
	}

	if err := d.decodeTiles(); err != nil {
		return err
	}
	for _, p := range d.planes {
		p.releaseInputs()
	}
	d.r.DiscardRemainder()
	return nil
}

// raster packs the formatted planes into the output pixel format.
func (d *decoder) raster() (*Raster, error) {
	primary := d.planes[0]
	var alpha *plane
	if len(d.planes) > 1 {
		alpha = d.planes[1]
	}
	format, err := rasterFormat(d.hdr, primary.numComponents, alpha != nil)
	if err != nil {
		return nil, err
	}

	var channels []*hwyimage.Image[int32]
	if format.Channels() == 4 && d.hdr.OutputColor == ColorRGB {
		channels = append(primary.samples[:3:3], alpha.samples[0])
	} else {
		channels = primary.samples[:format.Channels()]
	}
	return packRaster(format, channels), nil
}

// Decode reads a JPEG XR file or bare payload from r.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data, nil)
}

// DecodeConfig returns the dimensions and colour model without decoding
// the tiles.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	if IsContainer(data) {
		c, err := ParseContainer(data, nil)
		if err != nil {
			return image.Config{}, err
		}
		data = c.Payload
	}

	d := newDecoder(data, nil)
	if err := d.readHeaders(); err != nil {
		return image.Config{}, err
	}
	components := d.planes[0].numComponents
	if d.planes[0].color == ColorY && d.hdr.OutputColor == ColorRGB {
		components = 3
	}
	format, err := rasterFormat(d.hdr, components, d.hdr.Alpha)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		Width:      d.hdr.Width,
		Height:     d.hdr.Height,
		ColorModel: (&Raster{Format: format}).ColorModel(),
	}, nil
}

func init() {
	image.RegisterFormat("jxr", containerMagic, Decode, DecodeConfig)
	image.RegisterFormat("wmphoto", signature, Decode, DecodeConfig)
}
