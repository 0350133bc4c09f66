package jxr

// huffTable maps a prefix code, keyed as "1" followed by the code bits, to
// its symbol. Unused keys hold -1.
type huffTable struct {
	name  string
	codes [512]int16
}

func newHuffTable(name string, codes map[string]int) *huffTable {
	t := &huffTable{name: name}
	for i := range t.codes {
		t.codes[i] = -1
	}
	for code, v := range codes {
		k := 1
		for _, c := range code {
			k = k<<1 | int(c-'0')
		}
		t.codes[k] = int16(v)
	}
	return t
}

var (
	valDCYUV = newHuffTable("VAL_DC_YUV", map[string]int{
		"10": 0, "001": 1, "00001": 2, "0001": 3, "11": 4, "010": 5, "00000": 6, "011": 7,
	})

	numCBPHP = [2]*huffTable{
		newHuffTable("NUM_CBPHP", map[string]int{"1": 0, "01": 1, "001": 2, "0000": 3, "0001": 4}),
		newHuffTable("NUM_CBPHP", map[string]int{"1": 0, "000": 1, "001": 2, "010": 3, "011": 4}),
	}

	numBlkCBPHP1 = numCBPHP

	numBlkCBPHP2 = [2]*huffTable{
		newHuffTable("NUM_BLKCBPHP", map[string]int{
			"010": 0, "00000": 1, "0010": 2, "00001": 3, "00010": 4,
			"1": 5, "011": 6, "00011": 7, "0011": 8,
		}),
		newHuffTable("NUM_BLKCBPHP", map[string]int{
			"1": 0, "001": 1, "010": 2, "0001": 3, "000001": 4,
			"011": 5, "00001": 6, "0000000": 7, "0000001": 8,
		}),
	}

	firstIndexTables = [5]*huffTable{
		newHuffTable("FIRST_INDEX", map[string]int{
			"00001": 0, "000001": 1, "0000000": 2, "0000001": 3, "00100": 4, "010": 5,
			"00101": 6, "1": 7, "00110": 8, "0001": 9, "00111": 10, "011": 11,
		}),
		newHuffTable("FIRST_INDEX", map[string]int{
			"0010": 0, "00010": 1, "000000": 2, "000001": 3, "0011": 4, "010": 5,
			"00011": 6, "11": 7, "011": 8, "100": 9, "00001": 10, "101": 11,
		}),
		newHuffTable("FIRST_INDEX", map[string]int{
			"11": 0, "001": 1, "0000000": 2, "0000001": 3, "00001": 4, "010": 5,
			"0000010": 6, "011": 7, "100": 8, "101": 9, "0000011": 10, "0001": 11,
		}),
		newHuffTable("FIRST_INDEX", map[string]int{
			"001": 0, "11": 1, "0000000": 2, "00001": 3, "00010": 4, "010": 5,
			"0000001": 6, "011": 7, "00011": 8, "100": 9, "000001": 10, "101": 11,
		}),
		newHuffTable("FIRST_INDEX", map[string]int{
			"010": 0, "1": 1, "0000001": 2, "0001": 3, "0000010": 4, "011": 5,
			"00000000": 6, "0010": 7, "0000011": 8, "0011": 9, "00000001": 10, "00001": 11,
		}),
	}

	indexATables = [4]*huffTable{
		newHuffTable("INDEX_A", map[string]int{"1": 0, "00000": 1, "001": 2, "00001": 3, "01": 4, "0001": 5}),
		newHuffTable("INDEX_A", map[string]int{"01": 0, "0000": 1, "10": 2, "0001": 3, "11": 4, "001": 5}),
		newHuffTable("INDEX_A", map[string]int{"0000": 0, "0001": 1, "01": 2, "10": 3, "11": 4, "001": 5}),
		newHuffTable("INDEX_A", map[string]int{"00000": 0, "00001": 1, "01": 2, "1": 3, "0001": 4, "001": 5}),
	}

	indexB = newHuffTable("INDEX_B", map[string]int{"0": 0, "10": 2, "110": 1, "111": 3})

	runIndex = newHuffTable("RUN_INDEX", map[string]int{"1": 0, "01": 1, "001": 2, "0000": 3, "0001": 4})

	// runValue is indexed by the maximum run; entries 0 and 1 need no code.
	runValue = [5]*huffTable{
		2: newHuffTable("RUN_VALUE", map[string]int{"1": 1, "0": 2}),
		3: newHuffTable("RUN_VALUE", map[string]int{"1": 1, "01": 2, "00": 3}),
		4: newHuffTable("RUN_VALUE", map[string]int{"1": 1, "01": 2, "001": 3, "000": 4}),
	}

	absLevelIndex = [2]*huffTable{
		newHuffTable("ABS_LEVEL_INDEX", map[string]int{
			"01": 0, "10": 1, "11": 2, "001": 3, "0001": 4, "00000": 5, "00001": 6,
		}),
		newHuffTable("ABS_LEVEL_INDEX", map[string]int{
			"1": 0, "01": 1, "001": 2, "0001": 3, "00001": 4, "000000": 5, "000001": 6,
		}),
	}

	refCBPHP1 = newHuffTable("REF_CBPHP1", map[string]int{
		"00": 3, "01": 5, "100": 6, "101": 9, "110": 10, "111": 12,
	})

	numChBlk = newHuffTable("NUM_CH_BLK", map[string]int{"1": 0, "01": 1, "000": 2, "001": 3})

	chrCBPHP = newHuffTable("CHR_CBPHP", map[string]int{"1": 0, "01": 1, "00": 2})
	valInc   = newHuffTable("VAL_INC", map[string]int{"1": 0, "01": 1, "00": 2})

	cbplpYUV444 = newHuffTable("CBPLP_YUV1", map[string]int{
		"0": 0, "100": 1, "1010": 2, "1011": 3, "1100": 4, "1101": 5, "1110": 6, "1111": 7,
	})
)

// Delta tables driving the adaptive VLC discriminators.
var (
	numCBPHPDelta     = [5]int{0, -1, 0, 1, 1}
	numBlkCBPHPDelta1 = [9]int{0, -1, 0, 1, 1}
	numBlkCBPHPDelta2 = [9]int{2, 2, 1, 1, -1, -2, -2, -2, -3}

	firstIndexDelta = [4][12]int{
		{1, 1, 1, 1, 1, 0, 0, -1, 2, 1, 0, 0},
		{2, 2, -1, -1, -1, 0, -2, -1, 0, 0, -2, -1},
		{-1, 1, 0, 2, 0, 0, 0, 0, -2, 0, 1, 1},
		{0, 1, 0, 1, -2, 0, -1, -1, -2, -1, -2, -2},
	}

	index1Delta = [3][6]int{
		{-1, 1, 1, 1, 0, 1},
		{-2, 0, 0, 2, 0, 0},
		{-1, -1, 0, 1, -2, 0},
	}

	absLevelIndexDelta = [7]int{1, 0, -1, -1, -1, -1, -1}
)

// Coefficient layout tables. Scan orders start at position 1; slot 0 is
// the DC position and never scanned.
var (
	ict4x4InvPerm = [16]int{0, 8, 4, 13, 2, 15, 3, 14, 1, 12, 5, 9, 7, 11, 6, 10}
	hierScanOrder = [16]int{0, 4, 1, 5, 8, 12, 9, 13, 2, 6, 3, 7, 10, 14, 11, 15}

	zigzagLP      = [16]int{0, 1, 4, 5, 2, 8, 6, 9, 3, 12, 10, 7, 13, 11, 14, 15}
	zigzagHPHor   = [16]int{0, 5, 10, 12, 1, 2, 8, 4, 6, 9, 3, 14, 13, 7, 11, 15}
	zigzagHPVer   = [16]int{0, 10, 2, 12, 5, 9, 4, 8, 1, 13, 6, 15, 14, 3, 11, 7}
	flexTranspose = [15]int{5, 1, 6, 10, 12, 8, 14, 2, 4, 3, 7, 9, 13, 11, 15}

	mbPixelMap  = [16]int{0, 1, 5, 4, 2, 3, 7, 6, 10, 11, 15, 14, 8, 9, 13, 12}
	xyTranspose = [16]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15}

	scanTotals = [16]int{0, 32, 30, 28, 26, 24, 22, 20, 18, 16, 14, 12, 10, 8, 6, 4}
)
