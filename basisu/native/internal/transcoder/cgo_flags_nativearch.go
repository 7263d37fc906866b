//go:build basisu_native && cgo && basisu_nativearch

package transcoder

/*
#cgo CXXFLAGS: -march=native
*/
import "C"
