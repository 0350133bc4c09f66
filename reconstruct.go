package jxr

import (
	hwyimage "github.com/ajroetker/go-highway/hwy/contrib/image"
)

// reconstruct turns the dequantized coefficients of every macroblock into
// one sample plane per component, applying the overlap filters selected
// by the image header.
func (p *plane) reconstruct() {
	mode := p.hdr.Overlap

	for c := range p.numComponents {
		p.firstLevelTransform(c)
		if mode == OverlapFirstAndSecond {
			filterTiles(p.hdr, &firstLevelFilter{p: p, c: c})
		}
	}

	p.samples = make([]*hwyimage.Image[int32], p.numComponents)
	for c := range p.numComponents {
		p.secondLevelTransform(c)
		p.samples[c] = p.combine(c)
		if mode != OverlapNone {
			filterTiles(p.hdr, &secondLevelFilter{img: p.samples[c]})
		}
	}
	p.mbs = nil
}

// firstLevelTransform inverts the transform of the DC and LP coefficients,
// stored at the first position of each block.
func (p *plane) firstLevelTransform(c int) {
	for i := range p.mbs {
		buf := &p.mbs[i].buf[c]
		var v [16]int32
		for j := range v {
			v[j] = buf[16*j]
		}
		idct4x4Stage2(&v)
		if c > 0 && p.scaled {
			for j := range v {
				v[j] *= 2
			}
		}
		for j := range v {
			buf[16*j] = v[j]
		}
	}
}

func (p *plane) secondLevelTransform(c int) {
	for i := range p.mbs {
		buf := &p.mbs[i].buf[c]
		for j := range 16 {
			idct4x4Stage1((*[16]int32)(buf[16*j : 16*j+16]))
		}
	}
}

// combine lays the 16 blocks of every macroblock out as samples.
func (p *plane) combine(c int) *hwyimage.Image[int32] {
	h := p.hdr
	img := hwyimage.NewImage[int32](h.PaddedWidth, h.PaddedHeight)
	for i := range p.mbs {
		mb := &p.mbs[i]
		buf := &mb.buf[c]
		for by := range 4 {
			for py := range 4 {
				row := img.Row(mb.y*16 + by*4 + py)
				for bx := range 4 {
					x := mb.x*16 + bx*4
					base := by*16 + bx*64
					for px := range 4 {
						row[x+px] = buf[base+mbPixelMap[px+py*4]]
					}
				}
			}
		}
	}
	return img
}
