package jxr

import "github.com/pkg/errors"

// dcBand decodes the DC coefficient of each macroblock component.
type dcBand struct {
	p        *plane
	qp       *qpSet
	model    model
	absLevel [2]adaptiveVLC // [chroma]
}

// decodeMB decodes, predicts and scales the DC coefficients of mb.
func (b *dcBand) decodeMB(mb *macroblock) error {
	p := b.p
	if mb.initializeContext {
		b.absLevel[0].initTable1()
		b.absLevel[1].initTable1()
		b.model.init(bandDC)
	}

	var (
		lapMean [2]int
		input   [maxComponents]int32
	)
	if p.color == ColorYUV444 {
		coded, err := p.r.Huff(valDCYUV)
		if err != nil {
			return err
		}
		for c, mask := range [3]int{4, 2, 1} {
			ch := chroma(c)
			abs := coded&mask != 0
			if abs {
				lapMean[ch]++
			}
			if input[c], err = b.decodeDC(b.model.bits[ch], ch, abs); err != nil {
				return err
			}
		}
	} else {
		for c := range p.numComponents {
			ch := chroma(c)
			abs, err := p.r.ReadFlag()
			if err != nil {
				return errors.Wrap(err, "bAbsLevel")
			}
			if abs {
				lapMean[ch]++
			}
			if input[c], err = b.decodeDC(b.model.bits[ch], 0, abs); err != nil {
				return err
			}
		}
	}

	b.model.update(lapMean, bandDC, p.numComponents, p.yOnly())
	if mb.resetContext {
		b.absLevel[0].adaptTable1()
		b.absLevel[1].adaptTable1()
	}

	for c := range p.numComponents {
		mb.dclp[c][0] = input[c]
	}
	mb.dcMode = b.predictMode(mb)
	for c := range p.numComponents {
		switch mb.dcMode {
		case predictLeft:
			mb.dclp[c][0] += p.leftOf(mb).dclp[c][0]
		case predictTop:
			mb.dclp[c][0] += p.topOf(mb).dclp[c][0]
		case predictTopLeft:
			mb.dclp[c][0] += (p.topOf(mb).dclp[c][0] + p.leftOf(mb).dclp[c][0]) >> 1
		}
	}

	for c := range p.numComponents {
		mb.buf[c][16*ict4x4InvPerm[0]] = mb.dclp[c][0] * b.qp.scalingFactor(c)
	}
	return nil
}

// decodeDC reads one DC value: an optional magnitude, modelBits raw
// refinement bits and a sign.
func (b *dcBand) decodeDC(modelBits, ch int, abs bool) (int32, error) {
	r := b.p.r
	dc := 0
	if abs {
		level, err := decodeAbsLevel(r, &b.absLevel[ch])
		if err != nil {
			return 0, err
		}
		dc = level - 1
	}
	if modelBits > 0 {
		ref, err := r.readInt(modelBits)
		if err != nil {
			return 0, errors.Wrap(err, "iDC")
		}
		dc = dc<<modelBits | ref
	}
	dc, err := signOptional(r, dc)
	return int32(dc), err
}

// predictMode chooses the DC predictor from the tile edges and the
// gradients of the neighbouring DC values.
func (b *dcBand) predictMode(mb *macroblock) predictMode {
	switch {
	case mb.leftEdge && mb.topEdge:
		return predictNone
	case mb.leftEdge:
		return predictTop
	case mb.topEdge:
		return predictLeft
	}

	p := b.p
	left, top, topLeft := &p.leftOf(mb).dclp, &p.topOf(mb).dclp, &p.mbAt(mb.x-1, mb.y-1).dclp
	strHor := absDiff(topLeft[0][0], left[0][0])
	strVer := absDiff(topLeft[0][0], top[0][0])
	if c := b.p.color; c != ColorY && c != ColorNComponent {
		strHor = strHor*2 + absDiff(topLeft[1][0], left[1][0]) + absDiff(topLeft[2][0], left[2][0])
		strVer = strVer*2 + absDiff(topLeft[1][0], top[1][0]) + absDiff(topLeft[2][0], top[2][0])
	}
	return predictByStrength(strHor, strVer, predictTopLeft)
}

// predictByStrength compares horizontal and vertical strengths with a 4:1
// weight, returning fallback when neither dominates.
func predictByStrength(strHor, strVer int64, fallback predictMode) predictMode {
	const weight = 4
	switch {
	case strHor*weight < strVer:
		return predictTop
	case strVer*weight < strHor:
		return predictLeft
	default:
		return fallback
	}
}

func absDiff(a, b int32) int64 {
	return abs64(int64(a) - int64(b))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
