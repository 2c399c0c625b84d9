package romtype

// ProgressEvent reports progress during compression or packing.
type ProgressEvent struct {
	// Stage identifies the current phase.
	Stage ProgressStage

	// Path is the file or directory being processed, if applicable.
	Path string

	// BytesDone is the number of bytes produced so far in this stage.
	BytesDone uint64

	// BytesTotal is the expected total for this stage.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of files completed.
	FilesDone int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageCompressing indicates input files are being pre-compressed.
	StageCompressing ProgressStage = iota

	// StagePacking indicates the directory tree is being packed.
	StagePacking
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageCompressing:
		return "compressing"
	case StagePacking:
		return "packing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
