// Package texload loads Basis Universal textures (.basis and .ktx2) into images and GPU
// textures.
//
// A Loader dispatches on the caller's type tag, initializes the transcoder backend once,
// and hands the assembled basisu.Image to an Uploader. The sentinel-returning methods
// (LoadImage, LoadImageFromMemory, LoadTexture) report every failure as an empty result;
// Decode and DecodeFile expose the underlying error.
package texload
