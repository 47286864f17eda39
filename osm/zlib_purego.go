//go:build !cgo

package osm

import "github.com/klauspost/compress/zlib"

// Portable inflate path for builds without a cgo toolchain, parallel to
// zlib_cgo.go's czlib-backed fast path.
var newZlibReader = zlib.NewReader
