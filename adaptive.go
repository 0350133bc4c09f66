package jxr

// Backward-adaptive statistics for the coefficient decoder.
//
// Every table choice made while decoding is driven by counters updated from
// symbols that were already decoded; nothing is signaled in the bitstream.
// Instances live per plane and per band and are re-initialized at the first
// macroblock of each tile.
//
// - adaptiveVLC: selects one of several prefix-code tables. Single-threshold
//   instances (table1) switch between two tables; dual-threshold instances
//   (table2) walk a longer table list with separate "down" and "up"
//   discriminators.
// - model: number of raw refinement bits appended to each coefficient.
// - cbphpModel: state of the coded-block-pattern predictor.
// - adaptiveScan: self-organizing zig-zag order.

const (
	discrimLowerBound = -8
	discrimUpperBound = 8
	discrimClamp      = 64

	table1MaxIndex = 1
)

// adaptiveVLC is the table-selection state of one adaptive code.
type adaptiveVLC struct {
	tableIndex  int
	deltaIndex  int // delta table applied to discrim1
	delta2Index int // delta table applied to discrim2
	discrim1    int
	discrim2    int
}

// initTable1 resets a single-threshold code.
func (v *adaptiveVLC) initTable1() {
	*v = adaptiveVLC{}
}

// adaptTable1 moves a single-threshold code one table up or down once its
// discriminator crosses a bound; otherwise the discriminator is clamped.
func (v *adaptiveVLC) adaptTable1() {
	switch {
	case v.discrim1 < discrimLowerBound && v.tableIndex != 0:
		v.tableIndex--
		v.discrim1 = 0
	case v.discrim1 > discrimUpperBound && v.tableIndex != table1MaxIndex:
		v.tableIndex++
		v.discrim1 = 0
	default:
		v.discrim1 = clip(v.discrim1, -discrimClamp, discrimClamp)
	}
}

// initTable2 resets a dual-threshold code.
func (v *adaptiveVLC) initTable2() {
	*v = adaptiveVLC{tableIndex: 1, delta2Index: 1}
}

// adaptTable2 adapts a dual-threshold code whose tables are numbered
// 0..maxIndex.
func (v *adaptiveVLC) adaptTable2(maxIndex int) {
	changed := false
	switch {
	case v.discrim1 < discrimLowerBound && v.tableIndex != 0:
		v.tableIndex--
		changed = true
	case v.discrim2 > discrimUpperBound && v.tableIndex != maxIndex:
		v.tableIndex++
		changed = true
	}

	if !changed {
		v.discrim1 = clip(v.discrim1, -discrimClamp, discrimClamp)
		v.discrim2 = clip(v.discrim2, -discrimClamp, discrimClamp)
		return
	}

	v.discrim1, v.discrim2 = 0, 0
	switch v.tableIndex {
	case maxIndex:
		v.deltaIndex = v.tableIndex - 1
		v.delta2Index = v.tableIndex - 1
	case 0:
		v.deltaIndex = 0
		v.delta2Index = 0
	default:
		v.deltaIndex = v.tableIndex - 1
		v.delta2Index = v.tableIndex
	}
}

// model tracks refinement bits for luma (0) and chroma (1).
type model struct {
	state [2]int
	bits  [2]int
}

func (m *model) init(b band) {
	bits := (2 - int(b)) * 4
	m.state = [2]int{}
	m.bits = [2]int{bits, bits}
}

const modelWeight = 70

var (
	modelWeight0 = [3]int{240, 12, 1}
	modelWeight1 = [3][16]int{
		{0, 240, 120, 80, 60, 48, 40, 34, 30, 27, 24, 22, 20, 18, 17, 16},
		{0, 12, 6, 4, 3, 2, 2, 2, 2, 1, 1, 1, 1, 1, 1, 1},
		{0, 16, 8, 5, 4, 3, 3, 2, 2, 2, 2, 1, 1, 1, 1, 1},
	}
)

// update adjusts the model from the per-macroblock count of coded levels.
func (m *model) update(lapMean [2]int, b band, numComponents int, yOnly bool) {
	lapMean[0] *= modelWeight0[b]
	lapMean[1] *= modelWeight1[b][numComponents-1]
	if b == bandHP {
		lapMean[1] >>= 4
	}

	numModels := 2
	if yOnly {
		numModels = 1
	}

	for j := range numModels {
		ms := m.state[j]
		delta := (lapMean[j] - modelWeight) >> 2
		switch {
		case delta <= -8:
			delta += 4
			if delta < -16 {
				delta = -16
			}
			ms += delta
			if ms < -8 {
				if m.bits[j] == 0 {
					ms = -8
				} else {
					ms = 0
					m.bits[j]--
				}
			}
		case delta >= 8:
			delta -= 4
			if delta > 15 {
				delta = 15
			}
			ms += delta
			if ms > 8 {
				if m.bits[j] >= 15 {
					m.bits[j] = 15
					ms = 8
				} else {
					ms = 0
					m.bits[j]++
				}
			}
		}
		m.state[j] = ms
	}
}

// cbphpModel selects how the high-pass coded block pattern is predicted.
type cbphpModel struct {
	state      [2]int
	countOnes  [2]int
	countZeros [2]int
}

func (c *cbphpModel) init() {
	c.state = [2]int{0, 0}
	c.countOnes = [2]int{-4, -4}
	c.countZeros = [2]int{4, 4}
}

func (c *cbphpModel) update(i, ones int) {
	const diff = 3
	c.countOnes[i] = clip(c.countOnes[i]+ones-diff, -16, 15)
	c.countZeros[i] = clip(c.countZeros[i]+(16-ones)-diff, -16, 15)

	switch {
	case c.countOnes[i] < 0:
		if c.countOnes[i] < c.countZeros[i] {
			c.state[i] = 1
		} else {
			c.state[i] = 2
		}
	case c.countZeros[i] < 0:
		c.state[i] = 2
	default:
		c.state[i] = 0
	}
}

// adaptiveScan is a self-organizing scan order. A position moves one step
// earlier whenever its usage total overtakes its predecessor's.
type adaptiveScan struct {
	order  [16]int
	totals [16]int
}

func newAdaptiveScan(order *[16]int) adaptiveScan {
	return adaptiveScan{order: *order, totals: scanTotals}
}

func (s *adaptiveScan) resetTotals() {
	s.totals = scanTotals
}

func (s *adaptiveScan) translate(i int) int {
	return s.order[i]
}

func (s *adaptiveScan) adapt(i int) {
	s.totals[i]++
	if i > 1 && s.totals[i] > s.totals[i-1] {
		s.order[i], s.order[i-1] = s.order[i-1], s.order[i]
		s.totals[i], s.totals[i-1] = s.totals[i-1], s.totals[i]
	}
}

func clip(x, lo, hi int) int {
	return min(max(x, lo), hi)
}
