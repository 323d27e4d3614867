// Package ffmpeg wraps the external decode/encode engine behind byte-stream
// interfaces.
//
// The render pipeline never touches process APIs directly: it reads raw RGBA
// bytes from a DecodeStream, writes raw RGBA frames into an EncodeSink, and
// relies on Stop/Close for graceful cancellation with a bounded-wait force
// kill. Probe shells out to ffprobe and returns normalized media metadata.
package ffmpeg
