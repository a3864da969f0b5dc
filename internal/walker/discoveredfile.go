package walker

// DiscoveredFile is the walker's internal candidate record before it is
// classified into an Event. Its lifetime is a single call to handleFile: it
// is never stored or passed outside the package.
type DiscoveredFile struct {
	Path               string
	Basename           string
	Extension          string
	Directory          string
	Size               int64
	HasSiblingAudio    bool
	HasSiblingSubtitle bool
	ShouldSkip         bool
}
