package jxr

import (
	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
)

// maxComponents bounds the components of a plane.
const maxComponents = 4

// predictMode selects the neighbour used for DC, LP and HP prediction.
type predictMode int

const (
	predictLeft predictMode = iota
	predictTop
	predictTopLeft
	predictNone
)

// macroblock holds the decode state of one 16x16 area of one plane.
type macroblock struct {
	x, y int // Position in the image, in macroblocks

	// Position flags within the tile
	leftEdge          bool
	topEdge           bool
	initializeContext bool
	resetTotals       bool
	resetContext      bool

	dcMode predictMode
	lpMode predictMode
	hpMode predictMode

	qpIndexLP   int
	modelBitsHP [2]int

	dclp  [maxComponents][16]int32 // DC at 0, LP at 1..15
	cbphp [maxComponents]int

	// HP input is kept between the highpass and flexbits tiles in
	// frequency mode and released once all tiles are decoded.
	hpVLC  [][16][16]int32
	hpFlex [][16][16]int32

	// buf holds 16 blocks of 16 coefficients per component. After
	// reconstruction it holds samples.
	buf [][256]int32
}

// plane is one image plane: the primary plane or the alpha plane.
type plane struct {
	hdr   *Header
	r     *bitReader
	alpha bool

	color         ColorFormat // Internal colour format
	scaled        bool
	bandsPresent  int
	lpPresent     bool
	hpPresent     bool
	flexPresent   bool
	numBands      int
	numComponents int

	shiftBits   int
	lenMantissa int
	expBias     int

	dcUniform bool
	lpUniform bool
	hpUniform bool

	dc dcBand
	lp lpBand
	hp hpBand

	mbs []macroblock // MBHeight rows of MBWidth macroblocks

	samples []*hwyimage.Image[int32] // One per component after reconstruction
}

// newPlane creates an empty plane bound to the shared reader.
func newPlane(hdr *Header, r *bitReader, alpha bool) *plane {
	p := &plane{hdr: hdr, r: r, alpha: alpha}
	p.dc.p = p
	p.lp.p = p
	p.hp.p = p
	p.lp.coder.r = r
	p.hp.coder.r = r
	return p
}

// chroma maps a component to its luma (0) or chroma (1) context.
func chroma(component int) int {
	if component == 0 {
		return 0
	}
	return 1
}

// yOnly reports whether the plane carries a single luma model.
func (p *plane) yOnly() bool {
	return p.color == ColorY
}

// allocMacroblocks builds the macroblock arena.
func (p *plane) allocMacroblocks() {
	h := p.hdr
	p.mbs = make([]macroblock, h.MBWidth*h.MBHeight)

	for tx := range h.TileCols {
		width := h.TileWidthMB[tx]
		for ty := range h.TileRows {
			for yt := range h.TileHeightMB[ty] {
				y := h.TileTopMB[ty] + yt
				for xt := range width {
					x := h.TileLeftMB[tx] + xt
					mb := p.mbAt(x, y)
					*mb = macroblock{
						x:                 x,
						y:                 y,
						leftEdge:          xt == 0,
						topEdge:           yt == 0,
						initializeContext: xt == 0 && yt == 0,
						resetTotals:       xt%16 == 0,
						resetContext:      xt%16 == 0 || xt == width-1,
						buf:               make([][256]int32, p.numComponents),
					}
				}
			}
		}
	}
}

func (p *plane) mbAt(x, y int) *macroblock {
	return &p.mbs[y*p.hdr.MBWidth+x]
}

// leftOf and topOf return the neighbours used for prediction. Callers
// check the tile edge flags first, so mb is never in the first column or
// row respectively.
func (p *plane) leftOf(mb *macroblock) *macroblock {
	return p.mbAt(mb.x-1, mb.y)
}

func (p *plane) topOf(mb *macroblock) *macroblock {
	return p.mbAt(mb.x, mb.y-1)
}

// releaseInputs drops the per-macroblock HP inputs once decoding is done.
func (p *plane) releaseInputs() {
	for i := range p.mbs {
		p.mbs[i].hpVLC = nil
		p.mbs[i].hpFlex = nil
	}
}

// allocHPInputs allocates the HP inputs of mb on first use.
func (mb *macroblock) allocHPInputs(components int, flex bool) {
	if mb.hpVLC == nil {
		mb.hpVLC = make([][16][16]int32, components)
	}
	if flex && mb.hpFlex == nil {
		mb.hpFlex = make([][16][16]int32, components)
	}
}
