package zipfile

// FormatError reports a structurally invalid or truncated archive.
// No output is ever produced for an archive that fails to parse.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid zip archive: " + e.Reason
}

// UnsupportedError reports a well-formed archive that uses a feature this
// package does not handle (zip64, split volumes, encrypted entries).
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return "unsupported zip archive: " + e.Reason
}
