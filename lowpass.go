package jxr

import "github.com/pkg/errors"

// lpBand decodes the 15 lowpass coefficients of each macroblock component.
type lpBand struct {
	p     *plane
	qp    *qpSet
	model model
	coder blockCoder
	scan  adaptiveScan

	// Coded block pattern statistics for YUV444
	countZero int
	countMax  int
}

// decodeMB decodes, predicts and scales the lowpass coefficients of mb.
func (b *lpBand) decodeMB(mb *macroblock) error {
	p := b.p
	if mb.initializeContext {
		b.countZero, b.countMax = 1, 1
		b.coder.init()
		b.scan = newAdaptiveScan(&zigzagLP)
		b.model.init(bandLP)
	}
	if mb.resetTotals {
		b.scan.resetTotals()
	}

	cbplp, err := b.readCBPLP()
	if err != nil {
		return err
	}

	var (
		lapMean [2]int
		input   [maxComponents][16]int32
	)
	for c := range p.numComponents {
		ch := chroma(c)
		if cbplp>>c&1 != 0 {
			block, err := b.coder.decodeBlock(ch, 1)
			if err != nil {
				return err
			}
			lapMean[ch] += len(block)

			i := 1
			for _, rl := range block {
				i += rl.run
				if i > 15 {
					return rangef("lowpass location %d not in range 1-15", i)
				}
				input[c][b.scan.translate(i)] = int32(rl.level)
				b.scan.adapt(i)
				i++
			}
		}

		if bits := b.model.bits[ch]; bits > 0 {
			for k := 1; k < 16; k++ {
				if input[c][k], err = refine(p.r, input[c][k], bits); err != nil {
					return errors.Wrap(err, "lp_coeff_ref")
				}
			}
		}
	}

	b.model.update(lapMean, bandLP, p.numComponents, p.yOnly())
	if mb.resetContext {
		b.coder.adapt()
	}

	for c := range p.numComponents {
		copy(mb.dclp[c][1:], input[c][1:])
	}

	switch {
	case mb.dcMode == predictLeft && mb.qpIndexLP == p.leftOf(mb).qpIndexLP:
		mb.lpMode = predictLeft
	case mb.dcMode == predictTop && mb.qpIndexLP == p.topOf(mb).qpIndexLP:
		mb.lpMode = predictTop
	default:
		mb.lpMode = predictNone
	}
	for c := range p.numComponents {
		switch mb.lpMode {
		case predictLeft:
			for _, j := range [3]int{1, 2, 3} {
				mb.dclp[c][j] += p.leftOf(mb).dclp[c][j]
			}
		case predictTop:
			for _, j := range [3]int{4, 8, 12} {
				mb.dclp[c][j] += p.topOf(mb).dclp[c][j]
			}
		}
	}

	for c := range p.numComponents {
		scale := b.qp.scalingFactor(c)
		for j := 1; j < 16; j++ {
			mb.buf[c][16*ict4x4InvPerm[j]] = mb.dclp[c][j] * scale
		}
	}
	return nil
}

// readCBPLP reads the lowpass coded block pattern, one bit per component.
// YUV444 planes use an adaptive code driven by how often the pattern is
// empty or full.
func (b *lpBand) readCBPLP() (int, error) {
	p := b.p
	if p.color != ColorYUV444 {
		cbplp := 0
		for c := range p.numComponents {
			bit, err := p.r.readInt(1)
			if err != nil {
				return 0, errors.Wrap(err, "cbplp_ch_bit")
			}
			cbplp |= bit << c
		}
		return cbplp, nil
	}

	maxPattern := p.numComponents*4 - 5
	var (
		cbplp int
		err   error
	)
	if b.countZero <= 0 || b.countMax < 0 {
		if cbplp, err = p.r.Huff(cbplpYUV444); err != nil {
			return 0, err
		}
		if b.countMax < b.countZero {
			cbplp = maxPattern - cbplp
		}
	} else if cbplp, err = p.r.readInt(p.numComponents); err != nil {
		return 0, errors.Wrap(err, "CBPLP_YUV2")
	}

	b.countZero++
	if cbplp == 0 {
		b.countZero -= 4
	}
	b.countZero = clip(b.countZero, -8, 7)
	b.countMax++
	if cbplp == maxPattern {
		b.countMax -= 4
	}
	b.countMax = clip(b.countMax, -8, 7)
	return cbplp, nil
}

// refine appends bits raw refinement bits to a coefficient. A zero
// coefficient takes the refinement as its magnitude and reads a sign.
func refine(r *bitReader, coeff int32, bits int) (int32, error) {
	ref, err := r.readInt(bits)
	if err != nil {
		return 0, err
	}
	switch {
	case coeff > 0:
		return coeff<<bits + int32(ref), nil
	case coeff < 0:
		return coeff<<bits - int32(ref), nil
	}
	v, err := signOptional(r, ref)
	return int32(v), err
}
