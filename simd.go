// Copyright 2025 Kindle-download-helper Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package jxr

import (
	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/image"
)

// Row operations on sample planes. Rows are processed over their full
// stride; padding lanes hold don't-care values.

// addShiftImage computes (v + add) >> shift for every sample.
func addShiftImage(img *image.Image[int32], add int32, shift int) {
	lanes := hwy.MaxLanes[int32]()
	vAdd := hwy.Set(add)
	for y := range img.Height() {
		row := img.Row(y)
		i := 0
		for ; i+lanes <= len(row); i += lanes {
			v := hwy.Add(hwy.Load(row[i:]), vAdd)
			hwy.Store(hwy.ShiftRight(v, shift), row[i:])
		}
		for ; i < len(row); i++ {
			row[i] = (row[i] + add) >> shift
		}
	}
}

// shiftLeftImage computes v << shift for every sample.
func shiftLeftImage(img *image.Image[int32], shift int) {
	lanes := hwy.MaxLanes[int32]()
	for y := range img.Height() {
		row := img.Row(y)
		i := 0
		for ; i+lanes <= len(row); i += lanes {
			hwy.Store(hwy.ShiftLeft(hwy.Load(row[i:]), shift), row[i:])
		}
		for ; i < len(row); i++ {
			row[i] <<= shift
		}
	}
}

// clampImage limits every sample to [lo, hi].
func clampImage(img *image.Image[int32], lo, hi int32) {
	lanes := hwy.MaxLanes[int32]()
	vLo, vHi := hwy.Set(lo), hwy.Set(hi)
	for y := range img.Height() {
		row := img.Row(y)
		i := 0
		for ; i+lanes <= len(row); i += lanes {
			v := hwy.Min(hwy.Max(hwy.Load(row[i:]), vLo), vHi)
			hwy.Store(v, row[i:])
		}
		for ; i < len(row); i++ {
			row[i] = min(max(row[i], lo), hi)
		}
	}
}

// inverseYUV converts Y, U and V planes to R, G and B in place using the
// lossless lifting steps:
//
//	t = -U
//	G = Y - (t >> 1)
//	R = t + G - ((V + 1) >> 1)
//	B = V + R
func inverseYUV(y, u, v *image.Image[int32]) {
	lanes := hwy.MaxLanes[int32]()
	one := hwy.Set[int32](1)
	for row := range y.Height() {
		yRow, uRow, vRow := y.Row(row), u.Row(row), v.Row(row)
		i := 0
		for ; i+lanes <= len(yRow); i += lanes {
			vY := hwy.Load(yRow[i:])
			vU := hwy.Load(uRow[i:])
			vV := hwy.Load(vRow[i:])

			t := hwy.Neg(vU)
			g := hwy.Sub(vY, hwy.ShiftRight(t, 1))
			r := hwy.Sub(hwy.Add(t, g), hwy.ShiftRight(hwy.Add(vV, one), 1))
			b := hwy.Add(vV, r)

			hwy.Store(r, yRow[i:])
			hwy.Store(g, uRow[i:])
			hwy.Store(b, vRow[i:])
		}
		for ; i < len(yRow); i++ {
			t := -uRow[i]
			g := yRow[i] - (t >> 1)
			r := t + g - ((vRow[i] + 1) >> 1)
			yRow[i], uRow[i], vRow[i] = r, g, vRow[i]+r
		}
	}
}

// cropImage copies the w x h window at (left, top) into a new image.
func cropImage(img *image.Image[int32], left, top, w, h int) *image.Image[int32] {
	if left == 0 && top == 0 && w == img.Width() && h == img.Height() {
		return img
	}
	out := image.NewImage[int32](w, h)
	for y := range h {
		copy(out.Row(y)[:w], img.Row(top+y)[left:left+w])
	}
	return out
}
