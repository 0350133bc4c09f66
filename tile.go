package jxr

import (
	"log/slog"

	"github.com/pkg/errors"
)

// tileKind identifies the layout of a coded tile. Frequency-mode images
// split each tile into one coded tile per band; spatial-mode images carry
// all bands of a macroblock together.
type tileKind int

const (
	tileDC tileKind = iota
	tileLowpass
	tileHighpass
	tileFlexbits
	tileSpatial
)

var tileKindNames = [...]string{"DC", "lowpass", "highpass", "flexbits", "spatial"}

func (k tileKind) String() string {
	return tileKindNames[k]
}

var frequencyTiles = []tileKind{tileDC, tileLowpass, tileHighpass, tileFlexbits}

// tile is one coded tile being decoded.
type tile struct {
	kind tileKind

	// trimFlexBits is read from the primary plane and shared with alpha.
	trimFlexBits int
}

// decodeTiles decodes every coded tile in stream order.
func (d *decoder) decodeTiles() error {
	h := d.hdr
	kinds := []tileKind{tileSpatial}
	if h.FrequencyMode {
		kinds = frequencyTiles
	}
	numBands := d.planes[0].numBands
	firstTile := d.r.Offset()

	n := 0
	for ty := range h.TileRows {
		for tx := range h.TileCols {
			for i, kind := range kinds {
				if i >= numBands {
					break
				}
				if err := d.syncTile(n, firstTile); err != nil {
					return err
				}
				t := &tile{kind: kind}
				if err := t.decode(d, tx, ty); err != nil {
					return errors.Wrapf(err, "tile %d (%d,%d) %s", n, tx, ty, kind)
				}
				n++
			}
		}
	}
	d.r.DiscardRemainder()
	return nil
}

// syncTile checks the cursor against the index table and repositions it
// on a mismatch.
func (d *decoder) syncTile(n, firstTile int) error {
	if !d.hdr.IndexTable {
		return nil
	}
	if n >= len(d.indexOffsets) {
		return malformedf("tile %d has no index table entry", n)
	}
	want := d.indexOffsets[n]
	current := d.r.Offset() - firstTile
	if want == uint64(current) {
		return nil
	}

	d.log.Warn("tile index table offset mismatch",
		slog.Int("tile", n),
		slog.Uint64("index_offset", want),
		slog.Int("current_offset", current))
	if want > uint64(d.r.Offset()+d.r.Remaining()-firstTile) {
		return errors.Wrapf(ErrTruncatedData, "tile %d offset %d beyond payload", n, want)
	}
	return d.r.Seek(firstTile + int(want))
}

// decode reads the tile header, the per-plane tile headers and every
// macroblock of the tile.
func (t *tile) decode(d *decoder, tx, ty int) error {
	r := d.r
	h := d.hdr
	if _, err := r.CheckBits(24, "tile_startcode", []int{1}, nil); err != nil {
		return err
	}
	if _, err := r.ReadBits(8); err != nil {
		return errors.Wrap(err, "arbitrary_byte")
	}

	for _, p := range d.planes {
		if err := t.readPlaneHeader(p); err != nil {
			return err
		}
	}

	for y := h.TileTopMB[ty]; y < h.TileTopMB[ty+1]; y++ {
		for x := h.TileLeftMB[tx]; x < h.TileLeftMB[tx+1]; x++ {
			for _, p := range d.planes {
				if err := t.decodeMB(p, p.mbAt(x, y)); err != nil {
					return errors.Wrapf(err, "macroblock (%d,%d)", x, y)
				}
			}
		}
	}
	r.DiscardRemainder()
	return nil
}

func (t *tile) readPlaneHeader(p *plane) error {
	switch t.kind {
	case tileDC:
		return t.readDCHeader(p)
	case tileLowpass:
		return t.readLowpassHeader(p)
	case tileHighpass:
		return t.readHighpassHeader(p)
	case tileFlexbits:
		return t.readFlexbitsHeader(p)
	default:
		for _, read := range []func(*plane) error{
			t.readFlexbitsHeader, t.readDCHeader, t.readLowpassHeader, t.readHighpassHeader,
		} {
			if err := read(p); err != nil {
				return err
			}
		}
		return nil
	}
}

func (t *tile) readDCHeader(p *plane) error {
	if p.dcUniform {
		return nil
	}
	qp, err := readQPSet(p.r, p.numComponents, 1, p.scaled, bandDC)
	if err != nil {
		return err
	}
	p.dc.qp = qp
	return nil
}

func (t *tile) readLowpassHeader(p *plane) error {
	if !p.lpPresent || p.lpUniform {
		return nil
	}
	qp, err := readTileQPSet(p, "use_dc_qp_flag", p.dc.qp, bandLP)
	if err != nil {
		return err
	}
	p.lp.qp = qp
	return nil
}

func (t *tile) readHighpassHeader(p *plane) error {
	if !p.hpPresent || p.hpUniform {
		return nil
	}
	qp, err := readTileQPSet(p, "use_lp_qp_flag", p.lp.qp, bandHP)
	if err != nil {
		return err
	}
	p.hp.qp = qp
	return nil
}

// readTileQPSet reads a tile quantizer that either reuses shared or
// signals its own list of QPs.
func readTileQPSet(p *plane, flag string, shared *qpSet, b band) (*qpSet, error) {
	reuse, err := p.r.ReadFlag()
	if err != nil {
		return nil, errors.Wrap(err, flag)
	}
	if reuse {
		if shared == nil {
			return nil, malformedf("%s set without a quantizer to reuse", flag)
		}
		return shared, nil
	}
	n, err := p.r.readInt(4)
	if err != nil {
		return nil, errors.Wrapf(err, "%s NumQPs_minus1", b)
	}
	return readQPSet(p.r, p.numComponents, n+1, p.scaled, b)
}

func (t *tile) readFlexbitsHeader(p *plane) error {
	if !p.flexPresent || p.alpha {
		return nil
	}
	t.trimFlexBits = 0
	if p.hdr.TrimFlexBits {
		v, err := p.r.readInt(4)
		if err != nil {
			return errors.Wrap(err, "trim_flexbits")
		}
		t.trimFlexBits = v
	}
	return nil
}

func (t *tile) decodeMB(p *plane, mb *macroblock) error {
	switch t.kind {
	case tileDC:
		return p.dc.decodeMB(mb)
	case tileLowpass:
		if err := p.readLowpassQPIndex(mb); err != nil {
			return err
		}
		return p.decodeLowpass(mb)
	case tileHighpass:
		if err := p.readHighpassQPIndex(); err != nil {
			return err
		}
		return p.decodeHighpass(mb, false, 0)
	case tileFlexbits:
		if !p.flexPresent {
			return nil
		}
		return p.hp.decodeHPFlex(mb, false, true, t.trimFlexBits)
	default:
		if err := p.readLowpassQPIndex(mb); err != nil {
			return err
		}
		if err := p.readHighpassQPIndex(); err != nil {
			return err
		}
		if err := p.dc.decodeMB(mb); err != nil {
			return err
		}
		if err := p.decodeLowpass(mb); err != nil {
			return err
		}
		return p.decodeHighpass(mb, p.flexPresent, t.trimFlexBits)
	}
}

// readLowpassQPIndex selects the lowpass QP of mb when the tile signals
// more than one.
func (p *plane) readLowpassQPIndex(mb *macroblock) error {
	if !p.lpPresent || p.lp.qp.numQPs <= 1 || p.lp.qp == p.dc.qp {
		return nil
	}
	idx, err := readQPIndex(p.r, p.lp.qp.numQPs)
	if err != nil {
		return err
	}
	p.lp.qp.index = idx
	mb.qpIndexLP = idx
	return nil
}

// readHighpassQPIndex selects the highpass QP of the next macroblock when the
// tile signals more than one.
func (p *plane) readHighpassQPIndex() error {
	if !p.hpPresent || p.hp.qp.numQPs <= 1 || p.hp.qp == p.lp.qp {
		return nil
	}
	idx, err := readQPIndex(p.r, p.hp.qp.numQPs)
	if err != nil {
		return err
	}
	p.hp.qp.index = idx
	return nil
}

func (p *plane) decodeLowpass(mb *macroblock) error {
	if !p.lpPresent {
		return nil
	}
	return errors.Wrap(p.lp.decodeMB(mb), "lowpass")
}

// decodeHighpass decodes the coded block pattern and the highpass
// coefficients of mb, together with its flexbits when withFlex is set.
func (p *plane) decodeHighpass(mb *macroblock, withFlex bool, trimFlexBits int) error {
	if !p.hpPresent {
		return nil
	}
	if err := p.hp.decodeCBPHP(mb); err != nil {
		return errors.Wrap(err, "CBPHP")
	}
	return p.hp.decodeHPFlex(mb, true, withFlex, trimFlexBits)
}
