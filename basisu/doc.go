// Package basisu loads Basis Universal textures (.basis and .ktx2) into a single buffer that
// holds every mip level transcoded to one GPU-friendly target format.
//
// The target is negotiated per image by a FormatPolicy from the container's alpha flag.
// Levels are transcoded in ascending order into a buffer that is grown level by level
// through an Allocator; the result is all-or-nothing.
//
// ETC1S and UASTC payloads are transcoded by a Backend (see the basisu/native package).
// KTX2 files with plain 8-bit RGB/RGBA payloads are converted in Go to the uncompressed
// targets without a backend.
package basisu
