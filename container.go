package jxr

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// containerMagic opens a JPEG XR file: a little-endian TIFF-like header
// with its own version number.
const containerMagic = "II\xbc\x01"

// IFD tags read from the container.
const (
	tagPixelFormat    = 0xbc01
	tagImageWidth     = 0xbc80
	tagImageHeight    = 0xbc81
	tagImageOffset    = 0xbcc0
	tagImageByteCount = 0xbcc1
)

var requiredTags = []uint16{tagPixelFormat, tagImageWidth, tagImageHeight, tagImageOffset, tagImageByteCount}

var tagNames = map[uint16]string{
	tagPixelFormat:    "pixel format",
	tagImageWidth:     "width",
	tagImageHeight:    "height",
	tagImageOffset:    "image offset",
	tagImageByteCount: "image byte count",
}

// fieldTypeSizes gives the size in bytes of one value of each IFD field
// type.
var fieldTypeSizes = map[uint16]int{
	1: 1, 2: 1, 3: 2, 4: 4, 5: 8, 6: 1,
	7: 1, 8: 2, 9: 4, 10: 8, 11: 4, 12: 8,
}

// pixelFormatGUIDs names the pixel format GUIDs known to decode.
var pixelFormatGUIDs = map[string]string{
	"24c3dd6f-034e-fe4b-b185-3d77768dc905": "BlackWhite",
	"24c3dd6f-034e-fe4b-b185-3d77768dc908": "8bppGray",
	"24c3dd6f-034e-fe4b-b185-3d77768dc90b": "16bppGray",
	"24c3dd6f-034e-fe4b-b185-3d77768dc90c": "24bppBGR",
	"24c3dd6f-034e-fe4b-b185-3d77768dc90d": "24bppRGB",
	"24c3dd6f-034e-fe4b-b185-3d77768dc90f": "32bppRGBA",
	"24c3dd6f-034e-fe4b-b185-3d77768dc920": "24bpp3Channels",
	"24c3dd6f-034e-fe4b-b185-3d77768dc921": "32bpp4Channels",
}

// Container is the parsed JPEG XR file wrapper around an image payload.
type Container struct {
	PixelFormat     string // GUID in canonical text form
	PixelFormatName string // Empty for unknown formats
	Width           int
	Height          int
	ImageOffset     int
	ImageByteCount  int // Zero means the payload runs to the end of the file
	Payload         []byte
}

// IsContainer reports whether data starts with the container magic.
func IsContainer(data []byte) bool {
	return len(data) >= len(containerMagic) && string(data[:len(containerMagic)]) == containerMagic
}

// ParseContainer reads the first IFD of a JPEG XR file and locates the
// image payload. A nil logger discards warnings.
func ParseContainer(data []byte, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = discardLogger
	}
	if !IsContainer(data) {
		return nil, errors.Wrap(ErrInvalidSignature, "container magic")
	}

	r := newBitReader(data)
	if _, err := r.Extract(len(containerMagic)); err != nil {
		return nil, err
	}
	ifdOffset, err := r.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "IFD offset")
	}
	if err := r.Seek(int(ifdOffset)); err != nil {
		return nil, errors.Wrap(err, "IFD")
	}
	numEntries, err := r.ReadUint16(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "IFD entry count")
	}

	c := &Container{}
	seen := make(map[uint16]bool)
	for i := range int(numEntries) {
		tag, value, err := readIFDEntry(r, data)
		if err != nil {
			return nil, errors.Wrapf(err, "IFD entry %d", i)
		}
		if _, ok := tagNames[tag]; !ok {
			continue
		}
		if err := c.setField(tag, value); err != nil {
			return nil, err
		}
		seen[tag] = true
	}

	missing := lo.Filter(requiredTags, func(tag uint16, _ int) bool { return !seen[tag] })
	if len(missing) > 0 {
		return nil, malformedf("missing container fields: %v",
			lo.Map(missing, func(tag uint16, _ int) string { return tagNames[tag] }))
	}
	if c.Width <= 0 || c.Height <= 0 || c.ImageOffset <= 0 || c.ImageByteCount < 0 {
		return nil, malformedf("container fields width=%d height=%d offset=%d count=%d",
			c.Width, c.Height, c.ImageOffset, c.ImageByteCount)
	}

	c.PixelFormatName = pixelFormatGUIDs[c.PixelFormat]
	if c.PixelFormatName == "" {
		logger.Warn("unsupported pixel format", slog.String("guid", c.PixelFormat))
	}

	next, err := r.ReadUint32(binary.LittleEndian)
	if err != nil {
		return nil, errors.Wrap(err, "next IFD offset")
	}
	if next != 0 {
		return nil, unsupportedf("file contains multiple images")
	}

	if c.ImageOffset > len(data) {
		return nil, errors.Wrapf(ErrTruncatedData, "image offset %d beyond %d bytes", c.ImageOffset, len(data))
	}
	if c.ImageByteCount == 0 {
		c.Payload = data[c.ImageOffset:]
		return c, nil
	}
	end := c.ImageOffset + c.ImageByteCount
	if end > len(data) {
		logger.Warn("file is truncated", slog.Int("missing", end-len(data)))
		end = len(data)
	}
	c.Payload = data[c.ImageOffset:end]
	return c, nil
}

// readIFDEntry reads one 12-byte directory entry. Values that do not fit
// in the entry are read from the file at the stored offset.
func readIFDEntry(r *bitReader, data []byte) (uint16, ifdValue, error) {
	var v ifdValue
	tag, err := r.ReadUint16(binary.LittleEndian)
	if err != nil {
		return 0, v, err
	}
	if v.typ, err = r.ReadUint16(binary.LittleEndian); err != nil {
		return 0, v, err
	}
	count, err := r.ReadUint32(binary.LittleEndian)
	if err != nil {
		return 0, v, err
	}
	size, ok := fieldTypeSizes[v.typ]
	if !ok {
		return 0, v, malformedf("tag %#04x has unknown field type %d", tag, v.typ)
	}
	n := size * int(count)
	if n <= 4 {
		field, err := r.Extract(4)
		if err != nil {
			return 0, v, err
		}
		v.data = field[:n]
		return tag, v, nil
	}
	offset, err := r.ReadUint32(binary.LittleEndian)
	if err != nil {
		return 0, v, err
	}
	if int(offset) > len(data) || n > len(data)-int(offset) {
		return 0, v, errors.Wrapf(ErrTruncatedData, "tag %#04x data at %d+%d", tag, offset, n)
	}
	v.data = data[offset : int(offset)+n]
	return tag, v, nil
}

// ifdValue is the raw data of one IFD entry.
type ifdValue struct {
	typ  uint16
	data []byte
}

// asInt decodes the first value of an integer field.
func (v ifdValue) asInt() (int, error) {
	if len(v.data) < fieldTypeSizes[v.typ] {
		return 0, malformedf("empty field of type %d", v.typ)
	}
	switch v.typ {
	case 1:
		return int(v.data[0]), nil
	case 3:
		return int(binary.LittleEndian.Uint16(v.data)), nil
	case 4:
		return int(binary.LittleEndian.Uint32(v.data)), nil
	case 6:
		return int(int8(v.data[0])), nil
	case 8:
		return int(int16(binary.LittleEndian.Uint16(v.data))), nil
	case 9:
		return int(int32(binary.LittleEndian.Uint32(v.data))), nil
	}
	return 0, malformedf("field type %d is not an integer", v.typ)
}

func (c *Container) setField(tag uint16, v ifdValue) error {
	if tag == tagPixelFormat {
		if len(v.data) != 16 {
			return malformedf("pixel format GUID has %d bytes", len(v.data))
		}
		c.PixelFormat = formatGUID(v.data)
		return nil
	}
	n, err := v.asInt()
	if err != nil {
		return errors.Wrap(err, tagNames[tag])
	}
	switch tag {
	case tagImageWidth:
		c.Width = n
	case tagImageHeight:
		c.Height = n
	case tagImageOffset:
		c.ImageOffset = n
	case tagImageByteCount:
		c.ImageByteCount = n
	}
	return nil
}

// formatGUID renders 16 bytes in the 8-4-4-4-12 text form, bytes in
// stored order.
func formatGUID(b []byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
