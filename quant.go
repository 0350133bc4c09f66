package jxr

import "github.com/pkg/errors"

// band identifies one frequency layer of a macroblock.
type band int

const (
	bandDC band = iota
	bandLP
	bandHP
	bandFlex
)

var bandNames = [...]string{"DC", "lowpass", "highpass", "flexbits"}

func (b band) String() string {
	return bandNames[b]
}

// Component modes of a quantizer record.
const (
	componentUniform = iota
	componentSeparate
	componentIndependent
)

var componentModeNames = map[int]string{
	componentUniform:     "UNIFORM",
	componentSeparate:    "SEPARATE",
	componentIndependent: "INDEPENDENT",
}

const maxQPs = 16

// qpSet holds the scaling factors signaled by one quantizer record.
// Tiles may share a set with another band, in which case both bands point
// at the same qpSet and observe the same current index.
type qpSet struct {
	numQPs int
	index  int // QP selected for the current macroblock
	scale  [maxComponents][maxQPs]int32
}

// scalingFactor returns the factor for component under the current index.
func (q *qpSet) scalingFactor(component int) int32 {
	return q.scale[component][q.index]
}

// readQPSet parses numQPs quantizer entries for numComponents components.
func readQPSet(r *bitReader, numComponents, numQPs int, scaled bool, b band) (*qpSet, error) {
	q := &qpSet{numQPs: numQPs}
	for j := range numQPs {
		mode := componentUniform
		if numComponents != 1 {
			var err error
			mode, err = r.CheckBits(2, "component_mode",
				[]int{componentUniform, componentSeparate, componentIndependent}, componentModeNames)
			if err != nil {
				return nil, err
			}
		}

		switch mode {
		case componentUniform:
			qp, err := r.readInt(8)
			if err != nil {
				return nil, errors.Wrap(err, "QP_uniform")
			}
			for c := range numComponents {
				if q.scale[c][j], err = quantMap(qp, c, scaled, b); err != nil {
					return nil, err
				}
			}
		case componentSeparate:
			luma, err := r.readInt(8)
			if err != nil {
				return nil, errors.Wrap(err, "QP_separate_luma")
			}
			if q.scale[0][j], err = quantMap(luma, 0, scaled, b); err != nil {
				return nil, err
			}
			chroma, err := r.readInt(8)
			if err != nil {
				return nil, errors.Wrap(err, "QP_separate_chroma")
			}
			for c := 1; c < numComponents; c++ {
				if q.scale[c][j], err = quantMap(chroma, c, scaled, b); err != nil {
					return nil, err
				}
			}
		case componentIndependent:
			for c := range numComponents {
				qp, err := r.readInt(8)
				if err != nil {
					return nil, errors.Wrap(err, "QP_independent")
				}
				if q.scale[c][j], err = quantMap(qp, c, scaled, b); err != nil {
					return nil, err
				}
			}
		}
	}
	return q, nil
}

// quantMap converts an 8-bit quantizer index into a scaling factor.
// Scaled streams keep one extra bit of precision except for chroma DC and
// lowpass coefficients.
func quantMap(qp, component int, scaled bool, b band) (int32, error) {
	if qp == 0 {
		return 1, nil
	}

	var man, exp int
	if !scaled {
		const notScaledShift = -2
		switch {
		case qp < 32:
			man = (qp + 3) >> 2
			exp = 0
		case qp < 48:
			man = (16 + (qp & 15) + 1) >> 1
			exp = (qp >> 4) + notScaledShift
		default:
			man = 16 + (qp & 15)
			exp = ((qp >> 4) - 1) + notScaledShift
		}
	} else {
		scaledShift := 1
		if component > 0 && (b == bandDC || b == bandLP) {
			scaledShift = 0
		}
		if qp < 16 {
			man = qp
			exp = scaledShift
		} else {
			man = 16 + (qp & 15)
			exp = ((qp >> 4) - 1) + scaledShift
		}
	}

	factor := man << exp
	if factor < 1 {
		return 0, rangef("quantizer %d maps to scaling factor %d", qp, factor)
	}
	return int32(factor), nil
}

var bitsQPIndex = [17]int{0, 0, 1, 1, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4}

// readQPIndex reads a per-macroblock QP selector for a set of numQPs.
func readQPIndex(r *bitReader, numQPs int) (int, error) {
	nonzero, err := r.ReadFlag()
	if err != nil || !nonzero {
		return 0, errors.Wrap(err, "qpindex_nonzero_flag")
	}
	idx, err := r.readInt(bitsQPIndex[numQPs])
	if err != nil {
		return 0, errors.Wrap(err, "QPIndex")
	}
	idx++
	if idx >= numQPs {
		return 0, rangef("QP index %d with %d QPs", idx, numQPs)
	}
	return idx, nil
}
