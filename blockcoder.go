package jxr

import "github.com/pkg/errors"

// runLevel is one decoded coefficient: the count of zeros preceding it and
// its signed value.
type runLevel struct {
	run   int
	level int
}

// blockCoder decodes the run-level coded coefficients of lowpass and
// highpass blocks. Each band owns one, so their adaptive tables evolve
// independently.
type blockCoder struct {
	r          *bitReader
	firstIndex [2]adaptiveVLC    // [chroma]
	index      [2][2]adaptiveVLC // [chroma][context]
	absLevel   [2]adaptiveVLC    // [context]
	block      [16]runLevel
}

func (c *blockCoder) init() {
	for i := range 2 {
		c.firstIndex[i].initTable2()
		c.index[i][0].initTable2()
		c.index[i][1].initTable2()
		c.absLevel[i].initTable1()
	}
}

func (c *blockCoder) adapt() {
	for i := range 2 {
		c.firstIndex[i].adaptTable2(4)
		c.index[i][0].adaptTable2(3)
		c.index[i][1].adaptTable2(3)
		c.absLevel[i].adaptTable1()
	}
}

// decodeBlock decodes the coefficients of one block starting at scan
// position loc. The returned slice is reused by the next call.
func (c *blockCoder) decodeBlock(ch, loc int) ([]runLevel, error) {
	if loc < 0 || loc > 15 {
		return nil, rangef("block start location %d not in range 0-15", loc)
	}

	v := &c.firstIndex[ch]
	first, err := c.r.Huff(firstIndexTables[v.tableIndex])
	if err != nil {
		return nil, err
	}
	v.discrim1 += firstIndexDelta[v.deltaIndex][first]
	v.discrim2 += firstIndexDelta[v.delta2Index][first]

	runIsZero := first & 1
	levelNot1 := (first >> 1) & 1
	nextImmediate := (first >> 2) & 1
	nextAfterRun := first >> 3
	context := runIsZero & nextImmediate

	level, err := c.readLevel(levelNot1 != 0, context)
	if err != nil {
		return nil, err
	}
	run := 0
	if runIsZero == 0 {
		if run, err = c.decodeRun(15 - loc); err != nil {
			return nil, err
		}
	}
	block := append(c.block[:0], runLevel{run, level})
	iLoc := loc + run + 1

	for nextImmediate != 0 || nextAfterRun != 0 {
		run = 0
		if nextImmediate == 0 {
			if run, err = c.decodeRun(15 - iLoc); err != nil {
				return nil, err
			}
		}
		iLoc += run + 1
		if iLoc > 16 {
			return nil, rangef("decoded block location %d not in range 0-15", iLoc)
		}

		index, err := c.decodeIndex(ch, context, iLoc)
		if err != nil {
			return nil, err
		}
		levelNot1 = index & 1
		nextImmediate = (index >> 1) & 1
		nextAfterRun = index >> 2
		context &= nextImmediate

		if level, err = c.readLevel(levelNot1 != 0, context); err != nil {
			return nil, err
		}
		block = append(block, runLevel{run, level})
	}
	return block, nil
}

func (c *blockCoder) decodeIndex(ch, context, loc int) (int, error) {
	v := &c.index[ch][context]
	switch {
	case loc < 15:
		index, err := c.r.Huff(indexATables[v.tableIndex])
		if err != nil {
			return 0, err
		}
		v.discrim1 += index1Delta[v.deltaIndex][index]
		v.discrim2 += index1Delta[v.delta2Index][index]
		return index, nil
	case loc == 15:
		return c.r.Huff(indexB)
	default:
		index, err := c.r.readInt(1)
		return index, errors.Wrap(err, "index_c_flag")
	}
}

// readLevel reads a sign followed, unless the magnitude is 1, by an
// absolute level.
func (c *blockCoder) readLevel(notOne bool, context int) (int, error) {
	negative, err := c.r.ReadFlag()
	if err != nil {
		return 0, errors.Wrap(err, "level_sign_flag")
	}
	level := 1
	if notOne {
		if level, err = decodeAbsLevel(c.r, &c.absLevel[context]); err != nil {
			return 0, err
		}
	}
	if negative {
		level = -level
	}
	return level, nil
}

var (
	runBinIndex    = [10]int{10, 10, 5, 5, 5, 5, 0, 0, 0, 0}
	runFixedLength = [15]int{0, 0, 1, 1, 3, 0, 0, 1, 1, 2, 0, 0, 0, 0, 1}
	runRemap       = [15]int{1, 2, 3, 5, 7, 1, 2, 3, 5, 7, 1, 2, 3, 4, 5}
)

// decodeRun decodes a zero run of at most maxRun.
func (c *blockCoder) decodeRun(maxRun int) (int, error) {
	if maxRun < 1 || maxRun > 14 {
		return 0, rangef("run limit %d not in range 1-14", maxRun)
	}

	var run int
	switch {
	case maxRun == 1:
		run = 1
	case maxRun < 5:
		v, err := c.r.Huff(runValue[maxRun])
		if err != nil {
			return 0, err
		}
		run = v
	default:
		index, err := c.r.Huff(runIndex)
		if err != nil {
			return 0, err
		}
		index += runBinIndex[maxRun-5]
		run = runRemap[index]
		if fixed := runFixedLength[index]; fixed > 0 {
			ref, err := c.r.readInt(fixed)
			if err != nil {
				return 0, errors.Wrap(err, "run_ref")
			}
			run += ref
		}
	}

	if run < 1 || run > maxRun {
		return 0, rangef("run %d not in range 1-%d", run, maxRun)
	}
	return run, nil
}

var (
	absLevelRemap    = [6]int{2, 3, 4, 6, 10, 14}
	absLevelFixedLen = [6]int{0, 0, 1, 2, 2, 2}
)

// decodeAbsLevel decodes a magnitude of at least 2 with the adaptive
// table selected by v.
func decodeAbsLevel(r *bitReader, v *adaptiveVLC) (int, error) {
	index, err := r.Huff(absLevelIndex[v.tableIndex])
	if err != nil {
		return 0, err
	}
	v.discrim1 += absLevelIndexDelta[index]

	if index < 6 {
		level := absLevelRemap[index]
		if fixed := absLevelFixedLen[index]; fixed > 0 {
			ref, err := r.readInt(fixed)
			if err != nil {
				return 0, errors.Wrap(err, "level_ref")
			}
			level += ref
		}
		return level, nil
	}

	fixed, err := r.readInt(4)
	if err != nil {
		return 0, errors.Wrap(err, "fixed_num")
	}
	fixed += 4
	if fixed == 19 {
		ext, err := r.readInt(2)
		if err != nil {
			return 0, errors.Wrap(err, "fixed_num_ext")
		}
		fixed += ext
		if fixed == 22 {
			ext, err := r.readInt(3)
			if err != nil {
				return 0, errors.Wrap(err, "fixed_num_ext2")
			}
			fixed += ext
		}
	}
	ref, err := r.readInt(fixed)
	if err != nil {
		return 0, errors.Wrap(err, "level_ref")
	}
	return 2 + (1 << fixed) + ref, nil
}

// signOptional reads a sign bit for a nonzero value.
func signOptional(r *bitReader, v int) (int, error) {
	if v == 0 {
		return 0, nil
	}
	negative, err := r.ReadFlag()
	if err != nil {
		return 0, errors.Wrap(err, "optional_sign_flag")
	}
	if negative {
		return -v, nil
	}
	return v, nil
}
