// Package jxr decodes JPEG XR images as embedded in e-book resources.
//
// A payload is either a bare coded image starting with "WMPHOTO" or a
// JPEG XR file, the little-endian TIFF-like container starting with
// "II\xbc\x01" that points at such a payload. Decoding is lossless with
// respect to the coded data and produces a Raster in one of a small set
// of packed pixel formats.
//
// Decoding:
//
//	r, err := jxr.DecodeBytes(data, &jxr.Options{Logger: slog.Default()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img := r.Image()
//
// Every error wraps ErrMalformedBitstream. Encoding is not supported.
//
// The package registers itself with the image package for automatic
// format detection:
//
//	import _ "github.com/yihong0618/Kindle-download-helper-sub001"
//	img, _, err := image.Decode(reader)
package jxr
