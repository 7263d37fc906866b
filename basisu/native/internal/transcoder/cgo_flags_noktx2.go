//go:build basisu_native && cgo && basisu_noktx2

package transcoder

/*
#cgo CXXFLAGS: -DBASISD_SUPPORT_KTX2=0
*/
import "C"
