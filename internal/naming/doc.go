// Package naming resolves output-path collisions when two distinct source
// files would otherwise target the same basename (e.g. "movie.mp4" and
// "movie.mkv" both stripping to "movie.mp3" in the same directory).
package naming
