package jxr

// Integer lifting steps of the inverse photo core transform. Every step is
// exactly invertible; the rounding constants are part of the bitstream
// definition and must not change.

// dct2x2Up is the 2x2 Hadamard butterfly with upward rounding.
func dct2x2Up(a, b, c, d *int32) {
	*a += *d
	*b -= *c
	t := (*a - *b + 1) >> 1
	nc := t - *d
	*d = t - *c
	*a -= *d
	*b += nc
	*c = nc
}

// dct2x2Down is the 2x2 Hadamard butterfly with downward rounding.
func dct2x2Down(a, b, c, d *int32) {
	*a += *d
	*b -= *c
	t := (*a - *b) >> 1
	nc := t - *d
	*d = t - *c
	*a -= *d
	*b += nc
	*c = nc
}

func rotate1(a, b *int32) {
	*a -= (*b + 1) >> 1
	*b += (*a + 1) >> 1
}

func rotate2(a, b *int32) {
	*a -= (*b*3 + 4) >> 3
	*b += (*a*3 + 4) >> 3
}

func invOdd(a, b, c, d *int32) {
	*b += *d
	*a -= *c
	*d -= *b >> 1
	*c += (*a + 1) >> 1

	rotate2(a, b)
	rotate2(c, d)

	*c -= (*b + 1) >> 1
	*d = ((*a + 1) >> 1) - *d
	*b += *c
	*a -= *d
}

func invOddOdd(a, b, c, d *int32) {
	*d += *a
	*c -= *b
	t1 := *d >> 1
	*a -= t1
	t2 := *c >> 1
	*b += t2

	*a -= (*b*3 + 3) >> 3
	*b += (*a*3 + 3) >> 2
	*a -= (*b*3 + 4) >> 3

	*b -= t2
	*a += t1
	*c += *b
	*d -= *a

	*b = -*b
	*c = -*c
}

// invOddOddPost is the odd-odd step of the overlap filters.
func invOddOddPost(a, b, c, d *int32) {
	*d += *a
	*c -= *b
	t1 := *d >> 1
	*a -= t1
	t2 := *c >> 1
	*b += t2

	*a -= (*b*3 + 6) >> 3
	*b += (*a*3 + 2) >> 2
	*a -= (*b*3 + 4) >> 3

	*b -= t2
	*a += t1
	*c += *b
	*d -= *a
}

// invScale undoes the overlap scaling of a pair.
func invScale(a, d *int32) {
	*a += *d
	*d = (*a >> 1) - *d
	*a += (*d * 3) >> 3
	*d += (*a * 3) >> 4
	*d += *a >> 7
	*d -= *a >> 10
}

// hstDec is the final 2x2 step of the overlap filters.
func hstDec(a, b, c, d *int32) {
	*b -= *c
	*a += (*d*3 + 4) >> 3
	*d -= *b >> 1
	nc := ((*a - *b) >> 1) - *c
	*a -= nc
	*b += *d
	*c = *d
	*d = nc
}

// idct4x4Stage1 inverts the 4x4 transform of one block of coefficients.
func idct4x4Stage1(p *[16]int32) {
	dct2x2Up(&p[0], &p[1], &p[2], &p[3])
	invOdd(&p[5], &p[4], &p[7], &p[6])
	invOdd(&p[10], &p[8], &p[11], &p[9])
	invOddOdd(&p[15], &p[14], &p[13], &p[12])

	dct2x2Down(&p[0], &p[4], &p[8], &p[12])
	dct2x2Down(&p[1], &p[5], &p[9], &p[13])
	dct2x2Down(&p[2], &p[6], &p[10], &p[14])
	dct2x2Down(&p[3], &p[7], &p[11], &p[15])
}

// idct4x4Stage2 inverts the 4x4 transform of the DC and lowpass
// coefficients of a macroblock.
func idct4x4Stage2(p *[16]int32) {
	invOdd(&p[2], &p[3], &p[6], &p[7])
	invOdd(&p[8], &p[12], &p[9], &p[13])
	invOddOdd(&p[10], &p[14], &p[11], &p[15])
	dct2x2Up(&p[0], &p[4], &p[1], &p[5])

	dct2x2Down(&p[0], &p[12], &p[3], &p[15])
	dct2x2Down(&p[4], &p[8], &p[7], &p[11])
	dct2x2Down(&p[1], &p[13], &p[2], &p[14])
	dct2x2Down(&p[5], &p[9], &p[6], &p[10])
}

// overlapPost4x4 is the full overlap filter on a 4x4 neighbourhood.
func overlapPost4x4(p *[16]int32) {
	dct2x2Down(&p[0], &p[3], &p[12], &p[15])
	dct2x2Down(&p[1], &p[2], &p[13], &p[14])
	dct2x2Down(&p[4], &p[7], &p[8], &p[11])
	dct2x2Down(&p[5], &p[6], &p[9], &p[10])

	rotate1(&p[13], &p[12])
	rotate1(&p[9], &p[8])
	rotate1(&p[7], &p[3])
	rotate1(&p[6], &p[2])

	invOddOddPost(&p[10], &p[11], &p[14], &p[15])

	invScale(&p[0], &p[15])
	invScale(&p[1], &p[14])
	invScale(&p[4], &p[11])
	invScale(&p[5], &p[10])

	hstDec(&p[0], &p[3], &p[12], &p[15])
	hstDec(&p[1], &p[2], &p[13], &p[14])
	hstDec(&p[4], &p[7], &p[8], &p[11])
	hstDec(&p[5], &p[6], &p[9], &p[10])
}

// overlapPost4x4Split is the first-level overlap filter. Its inputs are
// gathered from the DC coefficients of four macroblocks.
func overlapPost4x4Split(p *[16]int32) {
	dct2x2Down(&p[0], &p[3], &p[12], &p[15])
	dct2x2Down(&p[1], &p[2], &p[13], &p[14])
	dct2x2Down(&p[4], &p[7], &p[8], &p[11])
	dct2x2Down(&p[5], &p[6], &p[9], &p[10])

	invOddOddPost(&p[10], &p[11], &p[14], &p[15])

	rotate1(&p[6], &p[2])
	rotate1(&p[7], &p[3])
	rotate1(&p[9], &p[8])
	rotate1(&p[13], &p[12])

	invScale(&p[0], &p[15])
	invScale(&p[1], &p[14])
	invScale(&p[4], &p[11])
	invScale(&p[5], &p[10])

	hstDec(&p[0], &p[12], &p[3], &p[15])
	hstDec(&p[1], &p[13], &p[2], &p[14])
	hstDec(&p[4], &p[8], &p[7], &p[11])
	hstDec(&p[5], &p[9], &p[6], &p[10])
}

// overlapPost4 is the reduced overlap filter used along edges and at
// corners.
func overlapPost4(p *[4]int32) {
	p[0] += p[3]
	p[1] += p[2]
	p[3] -= (p[0] + 1) >> 1
	p[2] -= (p[1] + 1) >> 1
	invScale(&p[0], &p[3])
	invScale(&p[1], &p[2])
	p[0] += (p[3]*3 + 4) >> 3
	p[1] += (p[2]*3 + 4) >> 3
	p[3] -= p[0] >> 1
	p[2] -= p[1] >> 1
	p[0] += p[3]
	p[1] += p[2]
	p[3] = -p[3]
	p[2] = -p[2]
	rotate1(&p[2], &p[3])
	p[3] += (p[0] + 1) >> 1
	p[2] += (p[1] + 1) >> 1
	p[0] -= p[3]
	p[1] -= p[2]
}
