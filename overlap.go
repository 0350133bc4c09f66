package jxr

import (
	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
)

type edgeSide int

const (
	edgeLeft edgeSide = iota
	edgeTop
	edgeRight
	edgeBottom
)

type cornerPos int

const (
	cornerTopLeft cornerPos = iota
	cornerTopRight
	cornerBottomLeft
	cornerBottomRight
)

// overlapFilter is one level of overlap filtering over one component.
// Positions are in the level's own units: macroblocks for the first
// level, samples for the second.
type overlapFilter interface {
	// span maps a tile extent [first, next) in macroblocks to the edge
	// anchor, the first interior anchor, the far edge anchor and the step
	// between interior anchors.
	span(first, next int) (start, inner, last, step int)
	block(x, y int)
	edge(side edgeSide, x, y int)
	corner(pos cornerPos, x, y int)
}

// filterTiles walks the tile grid and applies f to every interior block,
// every image or tile edge and every corner. With soft tiling the blocks
// straddling interior tile boundaries are filtered as well.
func filterTiles(h *Header, f overlapFilter) {
	hard := h.HardTiling
	for tx := range h.TileCols {
		x0, xi, x1, step := f.span(h.TileLeftMB[tx], h.TileLeftMB[tx+1])
		firstCol, lastCol := tx == 0, tx == h.TileCols-1

		for ty := range h.TileRows {
			y0, yi, y1, _ := f.span(h.TileTopMB[ty], h.TileTopMB[ty+1])
			firstRow, lastRow := ty == 0, ty == h.TileRows-1

			for y := yi; y < y1; y += step {
				for x := xi; x < x1; x += step {
					f.block(x, y)
				}
			}

			if firstCol || hard {
				for y := yi; y < y1; y += step {
					f.edge(edgeLeft, x0, y)
				}
			}
			if firstRow || hard {
				for x := xi; x < x1; x += step {
					f.edge(edgeTop, x, y0)
				}
			}
			if lastCol || hard {
				for y := yi; y < y1; y += step {
					f.edge(edgeRight, x1, y)
				}
			}
			if lastRow || hard {
				for x := xi; x < x1; x += step {
					f.edge(edgeBottom, x, y1)
				}
			}

			if (firstCol && firstRow) || hard {
				f.corner(cornerTopLeft, x0, y0)
			}
			if (lastCol && firstRow) || hard {
				f.corner(cornerTopRight, x1, y0)
			}
			if (firstCol && lastRow) || hard {
				f.corner(cornerBottomLeft, x0, y1)
			}
			if (lastCol && lastRow) || hard {
				f.corner(cornerBottomRight, x1, y1)
			}

			if hard {
				continue
			}
			if !lastCol {
				for y := yi; y < y1; y += step {
					f.block(x1, y)
				}
			}
			if !lastRow {
				for x := xi; x < x1; x += step {
					f.block(x, y1)
				}
			}
			if !lastCol && !lastRow {
				f.block(x1, y1)
			}
			if firstCol && !lastRow {
				f.edge(edgeLeft, x0, y1)
			}
			if !lastCol && firstRow {
				f.edge(edgeTop, x1, y0)
			}
			if lastCol && !lastRow {
				f.edge(edgeRight, x1, y1)
			}
			if !lastCol && lastRow {
				f.edge(edgeBottom, x1, y1)
			}
		}
	}
}

// mbTap addresses the DC coefficient of block z of the macroblock at
// (dx, dy) relative to the filter anchor.
type mbTap struct {
	dx, dy, z int
}

var (
	firstLevelEdges = [4][2][4]mbTap{
		edgeLeft: {
			{{0, 0, 8}, {0, 0, 12}, {0, 1, 0}, {0, 1, 4}},
			{{0, 0, 9}, {0, 0, 13}, {0, 1, 1}, {0, 1, 5}},
		},
		edgeTop: {
			{{0, 0, 2}, {0, 0, 3}, {1, 0, 0}, {1, 0, 1}},
			{{0, 0, 6}, {0, 0, 7}, {1, 0, 4}, {1, 0, 5}},
		},
		edgeRight: {
			{{0, 0, 10}, {0, 0, 14}, {0, 1, 2}, {0, 1, 6}},
			{{0, 0, 11}, {0, 0, 15}, {0, 1, 3}, {0, 1, 7}},
		},
		edgeBottom: {
			{{0, 0, 10}, {0, 0, 11}, {1, 0, 8}, {1, 0, 9}},
			{{0, 0, 14}, {0, 0, 15}, {1, 0, 12}, {1, 0, 13}},
		},
	}

	firstLevelCorners = [4][4]mbTap{
		cornerTopLeft:     {{0, 0, 0}, {0, 0, 1}, {0, 0, 4}, {0, 0, 5}},
		cornerTopRight:    {{0, 0, 2}, {0, 0, 3}, {0, 0, 6}, {0, 0, 7}},
		cornerBottomLeft:  {{0, 0, 8}, {0, 0, 9}, {0, 0, 12}, {0, 0, 13}},
		cornerBottomRight: {{0, 0, 10}, {0, 0, 11}, {0, 0, 14}, {0, 0, 15}},
	}

	firstLevelBlock = [16]mbTap{
		{0, 0, 10}, {0, 0, 11}, {1, 0, 8}, {1, 0, 9},
		{0, 0, 14}, {0, 0, 15}, {1, 0, 12}, {1, 0, 13},
		{0, 1, 2}, {0, 1, 3}, {1, 1, 0}, {1, 1, 1},
		{0, 1, 6}, {0, 1, 7}, {1, 1, 4}, {1, 1, 5},
	}
)

// firstLevelFilter filters the DC coefficients of component c across
// macroblock boundaries.
type firstLevelFilter struct {
	p *plane
	c int
}

func (f *firstLevelFilter) span(first, next int) (start, inner, last, step int) {
	return first, first, next - 1, 1
}

func (f *firstLevelFilter) coeff(x, y int, t mbTap) *int32 {
	return &f.p.mbAt(x+t.dx, y+t.dy).buf[f.c][xyTranspose[t.z]*16]
}

func (f *firstLevelFilter) block(x, y int) {
	var v [16]int32
	for i, t := range firstLevelBlock {
		v[i] = *f.coeff(x, y, t)
	}
	overlapPost4x4Split(&v)
	for i, t := range firstLevelBlock {
		*f.coeff(x, y, t) = v[i]
	}
}

func (f *firstLevelFilter) edge(side edgeSide, x, y int) {
	for _, taps := range firstLevelEdges[side] {
		f.filter4(x, y, &taps)
	}
}

func (f *firstLevelFilter) corner(pos cornerPos, x, y int) {
	f.filter4(x, y, &firstLevelCorners[pos])
}

func (f *firstLevelFilter) filter4(x, y int, taps *[4]mbTap) {
	var v [4]int32
	for i, t := range taps {
		v[i] = *f.coeff(x, y, t)
	}
	overlapPost4(&v)
	for i, t := range taps {
		*f.coeff(x, y, t) = v[i]
	}
}

// secondLevelFilter filters the samples of one component across 4x4
// block boundaries.
type secondLevelFilter struct {
	img *hwyimage.Image[int32]
}

func (f *secondLevelFilter) span(first, next int) (start, inner, last, step int) {
	return first * 16, first*16 + 2, next*16 - 2, 4
}

func (f *secondLevelFilter) block(x, y int) {
	var v [16]int32
	for dy := range 4 {
		copy(v[dy*4:dy*4+4], f.img.Row(y+dy)[x:x+4])
	}
	overlapPost4x4(&v)
	for dy := range 4 {
		copy(f.img.Row(y+dy)[x:x+4], v[dy*4:dy*4+4])
	}
}

// edge filters the two sample columns (left, right) or rows (top,
// bottom) starting at the anchor.
func (f *secondLevelFilter) edge(side edgeSide, x, y int) {
	for i := range 2 {
		if side == edgeLeft || side == edgeRight {
			f.column(x+i, y)
		} else {
			f.row(x, y+i)
		}
	}
}

func (f *secondLevelFilter) corner(_ cornerPos, x, y int) {
	top, bottom := f.img.Row(y), f.img.Row(y+1)
	v := [4]int32{top[x], top[x+1], bottom[x], bottom[x+1]}
	overlapPost4(&v)
	top[x], top[x+1], bottom[x], bottom[x+1] = v[0], v[1], v[2], v[3]
}

func (f *secondLevelFilter) row(x, y int) {
	overlapPost4((*[4]int32)(f.img.Row(y)[x : x+4]))
}

func (f *secondLevelFilter) column(x, y int) {
	var v [4]int32
	for i := range 4 {
		v[i] = f.img.Row(y+i)[x]
	}
	overlapPost4(&v)
	for i := range 4 {
		f.img.Row(y+i)[x] = v[i]
	}
}
