package jxr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransform4x4(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*[16]int32)
		in   [16]int32
		want [16]int32
	}{
		{
			name: "stage1",
			fn:   idct4x4Stage1,
			in:   [16]int32{31, -146, 104, -251, -226, 248, -204, 74, 296, -241, 219, -81, -262, -212, 144, 128},
			want: [16]int32{-53, 327, -1, 202, -73, -74, 365, 18, 171, 34, 201, -202, -307, -255, -33, -196},
		},
		{
			name: "stage2",
			fn:   idct4x4Stage2,
			in:   [16]int32{-229, -54, -208, 264, 134, -240, 279, -174, -72, 296, -237, 290, 299, 106, -250, -74},
			want: [16]int32{20, -214, -310, -150, -254, -144, 40, 269, 54, -87, -357, 130, 38, -94, 442, -299},
		},
		{
			name: "stage1 DC",
			fn:   idct4x4Stage1,
			in:   [16]int32{1000},
			want: [16]int32{250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250},
		},
		{
			name: "stage2 DC",
			fn:   idct4x4Stage2,
			in:   [16]int32{1000},
			want: [16]int32{250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250, 250},
		},
		{
			name: "overlap 4x4",
			fn:   overlapPost4x4,
			in:   [16]int32{-253, 270, -164, -4, 129, -153, 253, -180, 284, 15, 273, -115, -195, 295, 284, -108},
			want: [16]int32{-240, 356, -80, -207, 10, -145, 451, -46, 176, -82, 339, 31, -184, 451, 275, -187},
		},
		{
			name: "overlap 4x4 split",
			fn:   overlapPost4x4Split,
			in:   [16]int32{81, -201, 260, -236, 277, -239, -90, 208, 244, 137, 21, 176, 299, 164, 70, 6},
			want: [16]int32{12, -255, 283, -59, 421, -195, -128, 388, 284, 21, 55, 230, 234, 134, 269, 30},
		},
		{
			name: "overlap zero",
			fn:   overlapPost4x4,
			in:   [16]int32{},
			want: [16]int32{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			tt.fn(&got)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOverlapPost4(t *testing.T) {
	tests := []struct {
		in, want [4]int32
	}{
		{[4]int32{117, -58, 203, -91}, [4]int32{26, -20, 230, 11}},
		{[4]int32{-400, 12, 0, 355}, [4]int32{-226, 141, -124, 159}},
		{[4]int32{}, [4]int32{}},
	}
	for _, tt := range tests {
		got := tt.in
		overlapPost4(&got)
		require.Equal(t, tt.want, got, "overlapPost4(%v)", tt.in)
	}
}

// The 2x2 butterflies differ only in the rounding of the shared half sum.
func TestDCT2x2Rounding(t *testing.T) {
	a, b, c, d := int32(3), int32(0), int32(0), int32(0)
	dct2x2Up(&a, &b, &c, &d)
	require.Equal(t, [4]int32{1, 2, 2, 2}, [4]int32{a, b, c, d})

	a, b, c, d = 3, 0, 0, 0
	dct2x2Down(&a, &b, &c, &d)
	require.Equal(t, [4]int32{2, 1, 1, 1}, [4]int32{a, b, c, d})
}
