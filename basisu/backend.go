package basisu

// Backend transcodes ETC1S and UASTC payloads. The block arithmetic lives behind this
// interface; the basisu/native package provides an implementation over the upstream
// C++ transcoder.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Init performs the backend's process-wide setup. It must be safe to call repeatedly.
	Init() error

	// OpenBasis prepares a .basis file for transcoding.
	OpenBasis(data []byte) (Session, error)

	// OpenKTX2 prepares a KTX2 file holding an ETC1S or UASTC payload for transcoding.
	OpenKTX2(data []byte) (Session, error)
}

// Session is an opened container that is ready to transcode.
//
// A Session is not safe for concurrent use.
type Session interface {
	// TranscodeLevel transcodes mip level of image 0 (layer 0, face 0) into dst.
	// dst holds exactly units output units of f.
	TranscodeLevel(level int, dst []byte, units int, f TranscoderFormat) error

	// Close releases the session's resources.
	Close() error
}
