package jxr

// Output formatting turns reconstructed samples into samples of the
// output colour format and bit depth, cropped to the image window.

var bitDepthBias = map[BitDepth]int32{
	BD5:   1 << 4,
	BD565: 1 << 5,
	BD8:   1 << 7,
	BD10:  1 << 9,
	BD16:  1 << 15,
}

var clipRanges = map[BitDepth][2]int32{
	BD1White1: {0, 1},
	BD1Black1: {0, 1},
	BD8:       {0, 255},
	BD16:      {0, 65535},
	BD16S:     {-32768, 32767},
}

// formatOutput runs the output stages over the plane samples.
func (p *plane) formatOutput() error {
	if err := p.convertColor(); err != nil {
		return err
	}
	if err := p.addBias(); err != nil {
		return err
	}
	p.scale()
	if err := p.postscale(); err != nil {
		return err
	}
	return p.clipAndCrop()
}

func (p *plane) convertColor() error {
	out := p.hdr.OutputColor
	switch {
	case p.alpha:
		if p.color != ColorY {
			return unsupportedf("alpha plane colour format %s", p.internalColorName())
		}
	case p.color == ColorY && out == ColorRGB:
		p.samples = append(p.samples, p.samples[0].Clone(), p.samples[0].Clone())
		p.numComponents = 3
	case p.color == ColorYUV444 && out == ColorRGB:
		inverseYUV(p.samples[0], p.samples[1], p.samples[2])
		switch p.hdr.OutputBitDepth {
		case BD5, BD565, BD10:
			if !p.hdr.RedBlueNotSwapped {
				p.samples[0], p.samples[2] = p.samples[2], p.samples[0]
			}
		}
	case p.internalColorName() != out.String():
		return unsupportedf("colour conversion from %s to %s", p.internalColorName(), out)
	}
	return nil
}

func (p *plane) internalColorName() string {
	if s, ok := internalColorNames[int(p.color)]; ok {
		return s
	}
	return p.color.String()
}

func (p *plane) addBias() error {
	switch out := p.hdr.OutputColor; out {
	case ColorYUV420, ColorYUV422, ColorCMYK:
		return unsupportedf("bias for %s output", out)
	}
	bias := bitDepthBias[p.hdr.OutputBitDepth]
	if bias == 0 {
		return nil
	}
	if p.scaled {
		bias <<= 3
	}
	for _, img := range p.samples {
		addShiftImage(img, bias, 0)
	}
	return nil
}

// scale removes the fractional bits of scaled planes with rounding.
func (p *plane) scale() {
	depth := p.hdr.OutputBitDepth
	shift, round := 0, int32(0)
	if p.scaled {
		shift = 3
		switch depth {
		case BD5, BD565, BD8, BD10, BD16S, BD16F, BD32S, BD32F:
			round = 3
		case BD1White1, BD1Black1, BD16:
			round = 4
		}
	}
	for c, img := range p.samples {
		s := shift
		if depth == BD565 && c != 1 {
			s++
		}
		if s != 0 || round != 0 {
			addShiftImage(img, round, s)
		}
	}
}

func (p *plane) postscale() error {
	out, depth := p.hdr.OutputColor, p.hdr.OutputBitDepth
	if out == ColorRGBE {
		return unsupportedf("postscaling for %s output", out)
	}
	if out != ColorRGB && out != ColorYUV444 {
		return nil
	}
	switch depth {
	case BD16F, BD32F:
		return unsupportedf("postscaling for %s with %s", out, depth)
	case BD16, BD16S, BD32S:
		if p.shiftBits != 0 {
			for _, img := range p.samples {
				shiftLeftImage(img, p.shiftBits)
			}
		}
	}
	return nil
}

func (p *plane) clipAndCrop() error {
	h := p.hdr
	rng, ok := clipRanges[h.OutputBitDepth]
	if !ok {
		return unsupportedf("output bit depth %s", h.OutputBitDepth)
	}
	for c, img := range p.samples {
		clampImage(img, rng[0], rng[1])
		p.samples[c] = cropImage(img, h.MarginLeft, h.MarginTop, h.Width, h.Height)
	}
	return nil
}
