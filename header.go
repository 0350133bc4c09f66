package jxr

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// signature opens every JPEG XR image payload.
const signature = "WMPHOTO\x00"

// ColorFormat is an output colour format. Internal plane formats reuse the
// same numbering for the values they share.
type ColorFormat int

const (
	ColorY          ColorFormat = 0
	ColorYUV420     ColorFormat = 1
	ColorYUV422     ColorFormat = 2
	ColorYUV444     ColorFormat = 3
	ColorCMYK       ColorFormat = 4
	ColorCMYKDirect ColorFormat = 5
	ColorNComponent ColorFormat = 6
	ColorRGB        ColorFormat = 7
	ColorRGBE       ColorFormat = 8

	// colorYUVK is the internal format carrying four components where the
	// output format would say CMYK.
	colorYUVK ColorFormat = 4
)

var outputColorNames = map[int]string{
	int(ColorY):          "Y",
	int(ColorYUV420):     "YUV420",
	int(ColorYUV422):     "YUV422",
	int(ColorYUV444):     "YUV444",
	int(ColorCMYK):       "CMYK",
	int(ColorCMYKDirect): "CMYK Direct",
	int(ColorNComponent): "NCOMPONENT",
	int(ColorRGB):        "RGB",
	int(ColorRGBE):       "RGBE",
}

var internalColorNames = map[int]string{
	int(ColorY):          "Y",
	int(ColorYUV420):     "YUV420",
	int(ColorYUV422):     "YUV422",
	int(ColorYUV444):     "YUV444",
	int(colorYUVK):       "YUK",
	int(ColorNComponent): "NCOMPONENT",
}

func (c ColorFormat) String() string {
	if s, ok := outputColorNames[int(c)]; ok {
		return s
	}
	return fmt.Sprintf("ColorFormat(%d)", int(c))
}

// BitDepth is the output sample depth and packing.
type BitDepth int

const (
	BD1White1 BitDepth = 0
	BD8       BitDepth = 1
	BD16      BitDepth = 2
	BD16S     BitDepth = 3
	BD16F     BitDepth = 4
	BD32S     BitDepth = 6
	BD32F     BitDepth = 7
	BD5       BitDepth = 8
	BD10      BitDepth = 9
	BD565     BitDepth = 10
	BD1Black1 BitDepth = 15
)

var bitDepthNames = map[int]string{
	int(BD1White1): "BD1WHITE1",
	int(BD8):       "BD8",
	int(BD16):      "BD16",
	int(BD16S):     "BD16S",
	int(BD16F):     "BD16F",
	int(BD32S):     "BD32S",
	int(BD32F):     "BD32F",
	int(BD5):       "BD5",
	int(BD10):      "BD10",
	int(BD565):     "BD565",
	int(BD1Black1): "BD1BLACK1",
}

func (b BitDepth) String() string {
	if s, ok := bitDepthNames[int(b)]; ok {
		return s
	}
	return fmt.Sprintf("BitDepth(%d)", int(b))
}

// OverlapMode selects which overlap filtering passes run.
type OverlapMode int

const (
	OverlapNone           OverlapMode = 0
	OverlapSecondLevel    OverlapMode = 1
	OverlapFirstAndSecond OverlapMode = 2
)

// Orientation is the spatial transform applied by the encoder.
// The decoder reports it but does not rotate the output.
type Orientation int

var orientationNames = map[int]string{
	0: "TL", 1: "BL", 2: "TR", 3: "BR", 4: "RT", 5: "RB", 6: "LT", 7: "LB",
}

func (o Orientation) String() string {
	return orientationNames[int(o)]
}

// Header contains the parsed image header.
type Header struct {
	HardTiling         bool
	Tiling             bool
	FrequencyMode      bool
	Orientation        Orientation
	IndexTable         bool
	Overlap            OverlapMode
	ShortHeader        bool
	LongWord           bool
	Windowing          bool
	TrimFlexBits       bool
	RedBlueNotSwapped  bool
	PremultipliedAlpha bool
	Alpha              bool
	OutputColor        ColorFormat
	OutputBitDepth     BitDepth

	Width  int // Declared image width
	Height int // Declared image height

	// Window margins; the padded image is the declared image plus margins.
	MarginTop    int
	MarginLeft   int
	MarginBottom int
	MarginRight  int

	PaddedWidth  int // Always a multiple of 16
	PaddedHeight int
	MBWidth      int // Macroblock columns
	MBHeight     int // Macroblock rows

	TileCols     int
	TileRows     int
	TileWidthMB  []int // Width of each tile column in macroblocks
	TileHeightMB []int // Height of each tile row in macroblocks
	TileLeftMB   []int // First macroblock column of each tile column, plus the end
	TileTopMB    []int // First macroblock row of each tile row, plus the end
}

// readImageHeader parses the image header up to the first plane header.
func readImageHeader(r *bitReader) (*Header, error) {
	sig, err := r.Extract(len(signature))
	if err != nil {
		return nil, err
	}
	if string(sig) != signature {
		return nil, errors.Wrapf(ErrInvalidSignature, "GDI signature is incorrect: % x", sig)
	}

	h := &Header{}
	if _, err := r.CheckBits(4, "codec_version", []int{1}, nil); err != nil {
		return nil, err
	}
	if h.HardTiling, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if _, err := r.CheckBits(3, "codec_subversion", []int{1}, nil); err != nil {
		return nil, err
	}

	flags := []*bool{&h.Tiling, &h.FrequencyMode}
	if err := readFlags(r, flags); err != nil {
		return nil, err
	}
	orientation, err := r.CheckBits(3, "spatial_xfrm_subordinate",
		[]int{0, 1, 2, 3, 4, 5, 6, 7}, orientationNames)
	if err != nil {
		return nil, err
	}
	h.Orientation = Orientation(orientation)
	if h.IndexTable, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	overlap, err := r.CheckBits(2, "overlap_mode", []int{0, 1, 2}, nil)
	if err != nil {
		return nil, err
	}
	h.Overlap = OverlapMode(overlap)

	flags = []*bool{&h.ShortHeader, &h.LongWord, &h.Windowing, &h.TrimFlexBits}
	if err := readFlags(r, flags); err != nil {
		return nil, err
	}
	if _, err := r.CheckBits(1, "reserved_d", []int{0}, nil); err != nil {
		return nil, err
	}
	if h.RedBlueNotSwapped, err = r.ReadFlag(); err != nil {
		return nil, err
	}
	if _, err := r.CheckBits(1, "premultiplied_alpha_flag", []int{0}, nil); err != nil {
		return nil, err
	}
	if h.Alpha, err = r.ReadFlag(); err != nil {
		return nil, err
	}

	outColor, err := r.CheckBits(4, "output_clr_fmt", []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, outputColorNames)
	if err != nil {
		return nil, err
	}
	h.OutputColor = ColorFormat(outColor)
	outDepth, err := r.CheckBits(4, "output_bitdepth",
		[]int{0, 1, 2, 3, 4, 6, 7, 8, 9, 10, 15}, bitDepthNames)
	if err != nil {
		return nil, err
	}
	h.OutputBitDepth = BitDepth(outDepth)

	if h.Width, err = h.readSize(r); err != nil {
		return nil, errors.Wrap(err, "image_width_minus1")
	}
	if h.Height, err = h.readSize(r); err != nil {
		return nil, errors.Wrap(err, "image_height_minus1")
	}

	if err := h.readTiling(r); err != nil {
		return nil, err
	}
	if err := h.readWindow(r); err != nil {
		return nil, err
	}
	return h, h.layout()
}

func readFlags(r *bitReader, flags []*bool) error {
	for _, f := range flags {
		v, err := r.ReadFlag()
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// readSize reads a dimension stored minus one.
func (h *Header) readSize(r *bitReader) (int, error) {
	if h.ShortHeader {
		v, err := r.ReadUint16(binary.BigEndian)
		return int(v) + 1, err
	}
	v, err := r.ReadUint32(binary.BigEndian)
	return int(v) + 1, err
}

// readTileSize reads one tile width or height in macroblocks.
func (h *Header) readTileSize(r *bitReader) (int, error) {
	if h.ShortHeader {
		v, err := r.ReadUint8()
		return int(v), err
	}
	v, err := r.ReadUint16(binary.BigEndian)
	return int(v), err
}

func (h *Header) readTiling(r *bitReader) error {
	h.TileCols, h.TileRows = 1, 1
	if h.Tiling {
		cols, err := r.readInt(12)
		if err != nil {
			return errors.Wrap(err, "num_ver_tiles_minus1")
		}
		rows, err := r.readInt(12)
		if err != nil {
			return errors.Wrap(err, "num_hor_tiles_minus1")
		}
		h.TileCols, h.TileRows = cols+1, rows+1
	}

	h.TileWidthMB = make([]int, 0, h.TileCols)
	for range h.TileCols - 1 {
		w, err := h.readTileSize(r)
		if err != nil {
			return errors.Wrap(err, "tile_width_in_mb")
		}
		h.TileWidthMB = append(h.TileWidthMB, w)
	}
	h.TileHeightMB = make([]int, 0, h.TileRows)
	for range h.TileRows - 1 {
		ht, err := h.readTileSize(r)
		if err != nil {
			return errors.Wrap(err, "tile_height_in_mb")
		}
		h.TileHeightMB = append(h.TileHeightMB, ht)
	}
	return nil
}

func (h *Header) readWindow(r *bitReader) error {
	if !h.Windowing {
		// Only the right and bottom edges are padded when no window is
		// signaled.
		h.MarginTop, h.MarginLeft = 0, 0
		if h.Width&0xF != 0 {
			h.MarginRight = 0x10 - h.Width&0xF
		}
		if h.Height&0xF != 0 {
			h.MarginBottom = 0x10 - h.Height&0xF
		}
		return nil
	}

	for _, m := range []*int{&h.MarginTop, &h.MarginLeft, &h.MarginBottom, &h.MarginRight} {
		v, err := r.readInt(6)
		if err != nil {
			return errors.Wrap(err, "window margin")
		}
		*m = v
	}
	return nil
}

// layout derives the padded size, macroblock grid and tile extents.
func (h *Header) layout() error {
	h.PaddedWidth = h.Width + h.MarginLeft + h.MarginRight
	h.PaddedHeight = h.Height + h.MarginTop + h.MarginBottom
	if h.PaddedWidth%16 != 0 || h.PaddedHeight%16 != 0 {
		return malformedf("padded size %dx%d is not a multiple of 16", h.PaddedWidth, h.PaddedHeight)
	}
	h.MBWidth = h.PaddedWidth / 16
	h.MBHeight = h.PaddedHeight / 16

	var err error
	if h.TileLeftMB, h.TileWidthMB, err = tileExtents(h.TileWidthMB, h.MBWidth); err != nil {
		return errors.Wrap(err, "tile columns")
	}
	if h.TileTopMB, h.TileHeightMB, err = tileExtents(h.TileHeightMB, h.MBHeight); err != nil {
		return errors.Wrap(err, "tile rows")
	}
	return nil
}

// tileExtents completes the sizes of a tile axis with its last tile and
// returns the prefix offsets, including the trailing end.
func tileExtents(sizes []int, total int) (starts, full []int, err error) {
	starts = make([]int, 0, len(sizes)+2)
	starts = append(starts, 0)
	for _, s := range sizes {
		starts = append(starts, starts[len(starts)-1]+s)
	}
	last := total - starts[len(starts)-1]
	if last < 1 {
		return nil, nil, malformedf("tiles span %d macroblocks of %d", starts[len(starts)-1], total)
	}
	full = append(sizes, last)
	starts = append(starts, total)
	return starts, full, nil
}

// Index table and profile records.

// readIndexTable reads one byte offset per tile and band.
func (d *decoder) readIndexTable() error {
	n := d.hdr.TileRows * d.hdr.TileCols
	if d.hdr.FrequencyMode {
		n *= d.planes[0].numBands
	}
	if _, err := d.r.CheckBits(16, "index_table_startcode", []int{1}, nil); err != nil {
		return err
	}
	d.indexOffsets = make([]uint64, n)
	for i := range d.indexOffsets {
		v, err := d.readVLWEsc()
		if err != nil {
			return errors.Wrap(err, "IndexOffsetTile")
		}
		d.indexOffsets[i] = v
	}
	return nil
}

// readVLWEsc reads a variable length escaped integer.
func (d *decoder) readVLWEsc() (uint64, error) {
	first, err := d.r.ReadBits(8)
	if err != nil {
		return 0, err
	}
	switch {
	case first < 0xFB:
		second, err := d.r.ReadBits(8)
		return first<<8 | second, err
	case first == 0xFB:
		return d.r.ReadBits(32)
	case first == 0xFC:
		return d.r.ReadBits(64)
	default:
		return 0, nil
	}
}

var profileIDCs = []int{44, 55, 66, 88, 111}

// readProfileLevel reads profile records and returns their byte count.
func (d *decoder) readProfileLevel() (int, error) {
	n := 0
	for {
		n += 4
		if _, err := d.r.CheckBits(8, "profile_idc", profileIDCs, nil); err != nil {
			return 0, err
		}
		if _, err := d.r.ReadBits(8 + 15); err != nil {
			return 0, errors.Wrap(err, "level_idc")
		}
		last, err := d.r.ReadFlag()
		if err != nil {
			return 0, errors.Wrap(err, "last_flag")
		}
		if last {
			return n, nil
		}
	}
}

// Bands present in a plane.
const (
	bandsAll        = 0
	bandsNoFlexBits = 1
	bandsNoHighpass = 2
	bandsDCOnly     = 3
)

var bandsPresentNames = map[int]string{
	bandsAll:        "ALL_BANDS",
	bandsNoFlexBits: "NOFLEXBITS",
	bandsNoHighpass: "NOHIGHPASS",
	bandsDCOnly:     "DCONLY",
}

// readHeader parses an image plane header.
func (p *plane) readHeader() error {
	r := p.r
	color, err := r.CheckBits(3, "internal_clr_fmt",
		[]int{int(ColorY), int(ColorYUV420), int(ColorYUV422), int(ColorYUV444), int(colorYUVK), int(ColorNComponent)},
		internalColorNames)
	if err != nil {
		return err
	}
	p.color = ColorFormat(color)
	if p.scaled, err = r.ReadFlag(); err != nil {
		return errors.Wrap(err, "scaled_flag")
	}
	if p.bandsPresent, err = r.CheckBits(4, "bands_present",
		[]int{bandsAll, bandsNoFlexBits, bandsNoHighpass, bandsDCOnly}, bandsPresentNames); err != nil {
		return err
	}

	p.numBands = 1
	if p.bandsPresent != bandsDCOnly {
		p.lpPresent = true
		p.numBands++
		if p.bandsPresent != bandsNoHighpass {
			p.hpPresent = true
			p.numBands++
			if p.bandsPresent != bandsNoFlexBits {
				p.flexPresent = true
				p.numBands++
			}
		}
	}

	switch p.color {
	case ColorY:
		p.numComponents = 1
	case colorYUVK:
		p.numComponents = 4
	case ColorYUV420, ColorYUV422, ColorYUV444:
		// Chroma centering for subsampled formats, reserved otherwise.
		p.numComponents = 3
		if _, err := r.ReadBits(8); err != nil {
			return errors.Wrap(err, "chroma_centering")
		}
	case ColorNComponent:
		n, err := r.readInt(4)
		if err != nil {
			return errors.Wrap(err, "NumComponents_minus1")
		}
		p.numComponents = n + 1
		if p.numComponents == 16 {
			ext, err := r.readInt(12)
			if err != nil {
				return errors.Wrap(err, "NumComponents_extended_minus16")
			}
			p.numComponents = ext + 16
		} else if _, err := r.ReadBits(4); err != nil {
			return errors.Wrap(err, "reserved_h")
		}
	}
	if p.numComponents > maxComponents {
		return unsupportedf("%d components (at most %d supported)", p.numComponents, maxComponents)
	}

	switch p.hdr.OutputBitDepth {
	case BD16, BD16S, BD32S:
		if p.shiftBits, err = r.readInt(8); err != nil {
			return errors.Wrap(err, "shift_bits")
		}
	case BD32F:
		if p.lenMantissa, err = r.readInt(8); err != nil {
			return errors.Wrap(err, "len_mantissa")
		}
		bias, err := r.readInt(8)
		if err != nil {
			return errors.Wrap(err, "exp_bias")
		}
		p.expBias = int(int8(bias))
	}

	if err := p.readUniformQP(&p.dcUniform, &p.dc.qp, bandDC); err != nil {
		return err
	}
	if p.lpPresent {
		if _, err := r.CheckBits(1, "reserved_i_bit", []int{0}, nil); err != nil {
			return err
		}
		if err := p.readUniformQP(&p.lpUniform, &p.lp.qp, bandLP); err != nil {
			return err
		}
		if p.hpPresent {
			if _, err := r.CheckBits(1, "reserved_j_bit", []int{0}, nil); err != nil {
				return err
			}
			if err := p.readUniformQP(&p.hpUniform, &p.hp.qp, bandHP); err != nil {
				return err
			}
		}
	}
	r.DiscardRemainder()

	if p.color == ColorYUV420 || p.color == ColorYUV422 {
		return unsupportedf("color format %s is not supported", internalColorNames[int(p.color)])
	}
	return nil
}

// readUniformQP reads a plane-wide uniform flag and, when set, the single
// QP shared by every tile.
func (p *plane) readUniformQP(uniform *bool, qp **qpSet, b band) error {
	var err error
	if *uniform, err = p.r.ReadFlag(); err != nil {
		return errors.Wrapf(err, "%s uniform flag", b)
	}
	if *uniform {
		*qp, err = readQPSet(p.r, p.numComponents, 1, p.scaled, b)
	}
	return err
}
