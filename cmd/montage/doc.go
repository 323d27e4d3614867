// Command montage renders edit files into video. It loads a TOML edit
// document describing clips, layers, and transitions, pipes raw frames
// through external ffmpeg processes, and writes one finished video file.
package main
