package jxr

import (
	"math/bits"

	"github.com/pkg/errors"
)

// hpBand decodes the highpass coefficients and flexbits of each macroblock
// component.
type hpBand struct {
	p     *plane
	qp    *qpSet
	model model
	coder blockCoder

	numCBPHP    adaptiveVLC
	numBlkCBPHP adaptiveVLC
	cbphpModel  cbphpModel

	horScan adaptiveScan
	verScan adaptiveScan
}

var (
	cbphpFLC    = [6]int{0, 2, 1, 2, 2, 0}
	cbphpOffset = [6]int{0, 4, 2, 8, 12, 1}
	cbphpOut    = [16]int{0, 15, 3, 12, 1, 2, 4, 8, 5, 6, 9, 10, 7, 11, 13, 14}
)

// decodeCBPHP decodes the coded block pattern of mb: bit n of a component
// pattern is set when the nth block in hierarchical order has coded
// highpass coefficients.
func (b *hpBand) decodeCBPHP(mb *macroblock) error {
	p := b.p
	r := p.r

	blkTables, blkDelta := &numBlkCBPHP1, numBlkCBPHPDelta1[:]
	components := 1
	switch p.color {
	case colorYUVK, ColorNComponent:
		components = p.numComponents
	case ColorY:
	default:
		blkTables, blkDelta = &numBlkCBPHP2, numBlkCBPHPDelta2[:]
	}

	if mb.initializeContext {
		b.numCBPHP.initTable1()
		b.numBlkCBPHP.initTable1()
	}

	var diff [maxComponents]int
	for c := range components {
		num, err := r.Huff(numCBPHP[b.numCBPHP.tableIndex])
		if err != nil {
			return err
		}
		b.numCBPHP.discrim1 += numCBPHPDelta[num]
		cbphp, err := b.refineCBPHP(num)
		if err != nil {
			return err
		}

		for blk := range 4 {
			if cbphp&(1<<blk) == 0 {
				continue
			}
			v, err := r.Huff(blkTables[b.numBlkCBPHP.tableIndex])
			if err != nil {
				return err
			}
			b.numBlkCBPHP.discrim1 += blkDelta[v]

			val := v + 1
			blkCBPHP := 0
			if val >= 6 {
				chr, err := r.Huff(chrCBPHP)
				if err != nil {
					return err
				}
				blkCBPHP = 0x10 * (chr + 1)
				if val >= 9 {
					inc, err := r.Huff(valInc)
					if err != nil {
						return err
					}
					val += inc
				}
				val -= 6
			}

			code := cbphpOffset[val]
			if n := cbphpFLC[val]; n > 0 {
				ref, err := r.readInt(n)
				if err != nil {
					return errors.Wrap(err, "cbphp_iCode")
				}
				code += ref
			}
			blkCBPHP += cbphpOut[code]

			if p.color != ColorYUV444 {
				diff[c] |= blkCBPHP << (blk * 4)
				continue
			}
			diff[0] |= (blkCBPHP & 0xF) << (blk * 4)
			for k := range 2 {
				if blkCBPHP>>(k+4)&1 == 0 {
					continue
				}
				num, err := r.Huff(numChBlk)
				if err != nil {
					return err
				}
				chr, err := b.refineCBPHP(num + 1)
				if err != nil {
					return err
				}
				diff[k+1] |= chr << (blk * 4)
			}
		}
	}

	if mb.initializeContext {
		b.cbphpModel.init()
	}
	for c := range p.numComponents {
		mb.cbphp[c] = b.predictCBPHP(c, diff[c], mb)
	}
	return nil
}

// refineCBPHP expands a count of coded 2x2 groups into a 4-bit pattern.
func (b *hpBand) refineCBPHP(num int) (int, error) {
	r := b.p.r
	switch num {
	case 1:
		n, err := r.readInt(2)
		return 1 << n, errors.Wrap(err, "iRef_scale")
	case 2:
		return r.Huff(refCBPHP1)
	case 3:
		n, err := r.readInt(2)
		return 0xF ^ (1 << n), errors.Wrap(err, "iRef_scale_2")
	case 4:
		return 0xF, nil
	default:
		return 0, nil
	}
}

// predictCBPHP reconstructs a component pattern from its decoded
// difference according to the current model state.
func (b *hpBand) predictCBPHP(c, diff int, mb *macroblock) int {
	ch := chroma(c)
	cbphp := diff
	switch b.cbphpModel.state[ch] {
	case 0:
		switch {
		case mb.leftEdge && mb.topEdge:
			cbphp ^= 1
		case mb.leftEdge:
			cbphp ^= (b.p.topOf(mb).cbphp[c] >> 10) & 1
		default:
			cbphp ^= (b.p.leftOf(mb).cbphp[c] >> 5) & 1
		}
		cbphp ^= 0x02 & (cbphp << 1)
		cbphp ^= 0x10 & (cbphp << 3)
		cbphp ^= 0x20 & (cbphp << 1)
		cbphp ^= (cbphp & 0x33) << 2
		cbphp ^= (cbphp & 0xCC) << 6
		cbphp ^= (cbphp & 0x3300) << 2
	case 2:
		cbphp ^= 0xFFFF
	}
	b.cbphpModel.update(ch, bits.OnesCount(uint(cbphp)))
	return cbphp
}

// decodeHPFlex decodes the highpass coefficients of mb when doHP is set
// and its flexbits when doFlex is set. Spatial tiles do both in one pass.
func (b *hpBand) decodeHPFlex(mb *macroblock, doHP, doFlex bool, trimFlexBits int) error {
	p := b.p
	mb.allocHPInputs(p.numComponents, p.flexPresent)

	var (
		scan    *adaptiveScan
		lapMean [2]int
	)
	if doHP {
		if mb.initializeContext {
			b.coder.init()
			b.horScan = newAdaptiveScan(&zigzagHPHor)
			b.verScan = newAdaptiveScan(&zigzagHPVer)
			b.model.init(bandHP)
		}
		if mb.resetTotals {
			b.horScan.resetTotals()
			b.verScan.resetTotals()
		}
		mb.hpMode = b.predictMode(mb)
		scan = &b.horScan
		if mb.hpMode == predictTop {
			scan = &b.verScan
		}
	}

	for c := range p.numComponents {
		ch := chroma(c)
		modelBits := mb.modelBitsHP[ch]
		if doHP {
			modelBits = b.model.bits[ch]
		}
		cbphp := mb.cbphp[c]

		for _, blk := range hierScanOrder {
			if doHP {
				if cbphp&1 != 0 {
					n, err := b.decodeBlock(mb, ch, c, blk, scan)
					if err != nil {
						return errors.Wrapf(err, "highpass block %d of component %d", blk, c)
					}
					lapMean[ch] += n
				}
				cbphp >>= 1
			}
			if doFlex && p.flexPresent {
				if err := b.decodeFlexBits(mb, c, blk, modelBits, trimFlexBits); err != nil {
					return errors.Wrapf(err, "flexbits block %d of component %d", blk, c)
				}
			}
		}
	}

	if doHP {
		mb.modelBitsHP = b.model.bits
		b.model.update(lapMean, bandHP, p.numComponents, p.yOnly())
		if mb.resetContext {
			b.coder.adapt()
			b.numCBPHP.adaptTable1()
			b.numBlkCBPHP.adaptTable1()
		}
	}

	if (doHP && !p.flexPresent) || doFlex {
		b.scaleMB(mb)
	}
	return nil
}

// decodeBlock decodes one coded block through the adaptive scan and
// returns its count of nonzero coefficients.
func (b *hpBand) decodeBlock(mb *macroblock, ch, c, blk int, scan *adaptiveScan) (int, error) {
	block, err := b.coder.decodeBlock(ch, 1)
	if err != nil {
		return 0, err
	}
	loc := 1
	for _, rl := range block {
		loc += rl.run
		if loc < 1 || loc > 15 {
			return 0, rangef("highpass location %d not in range 1-15", loc)
		}
		mb.hpVLC[c][blk][scan.translate(loc)] = int32(rl.level)
		scan.adapt(loc)
		loc++
	}
	return len(block), nil
}

// decodeFlexBits reads the untrimmed low bits of every highpass
// coefficient of one block.
func (b *hpBand) decodeFlexBits(mb *macroblock, c, blk, modelBits, trim int) error {
	r := b.p.r
	left := modelBits - trim
	if left <= 0 {
		return nil
	}
	for _, n := range flexTranspose {
		ref, err := r.readInt(left)
		if err != nil {
			return errors.Wrap(err, "flex_ref")
		}
		flex := ref
		switch vlc := mb.hpVLC[c][blk][n]; {
		case vlc < 0:
			flex = -ref
		case vlc == 0:
			if flex, err = signOptional(r, ref); err != nil {
				return err
			}
		}
		mb.hpFlex[c][blk][n] = int32(flex << trim)
	}
	return nil
}

// predictMode chooses the HP predictor from the lowpass energy in the
// first row and column of the macroblock.
func (b *hpBand) predictMode(mb *macroblock) predictMode {
	d := &mb.dclp
	strHor := abs64(int64(d[0][1])) + abs64(int64(d[0][2])) + abs64(int64(d[0][3]))
	strVer := abs64(int64(d[0][4])) + abs64(int64(d[0][8])) + abs64(int64(d[0][12]))
	if c := b.p.color; c != ColorY && c != ColorNComponent {
		for i := 1; i < 3; i++ {
			strHor += abs64(int64(d[i][1]))
			strVer += abs64(int64(d[i][4]))
		}
	}
	return predictByStrength(strHor, strVer, predictNone)
}

var hpPredictTopBlocks = [12]int{1, 2, 3, 5, 6, 7, 9, 10, 11, 13, 14, 15}

// scaleMB combines VLC and flex inputs into scaled coefficients and
// applies HP prediction within the macroblock.
func (b *hpBand) scaleMB(mb *macroblock) {
	p := b.p
	for c := range p.numComponents {
		scale := b.qp.scalingFactor(c)
		shift := mb.modelBitsHP[chroma(c)]
		buf := &mb.buf[c]
		for blk := range 16 {
			for j := 1; j < 16; j++ {
				v := mb.hpVLC[c][blk][j] << shift
				if mb.hpFlex != nil {
					v += mb.hpFlex[c][blk][j]
				}
				buf[16*blk+j] = v * scale
			}
		}

		switch mb.hpMode {
		case predictTop:
			for _, blk := range hpPredictTopBlocks {
				for _, k := range [3]int{2, 10, 9} {
					buf[16*blk+k] += buf[16*(blk-1)+k]
				}
			}
		case predictLeft:
			for blk := 4; blk < 16; blk++ {
				for _, k := range [3]int{1, 5, 6} {
					buf[16*blk+k] += buf[16*(blk-4)+k]
				}
			}
		}
	}
}
