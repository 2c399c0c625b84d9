package rescomp

import "github.com/meigma/rescomp/internal/romtype"

// Re-export progress types from internal/romtype.
type (
	// ProgressEvent reports progress during compression or packing.
	ProgressEvent = romtype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = romtype.ProgressStage

	// ProgressFunc receives progress updates.
	ProgressFunc = romtype.ProgressFunc
)

// Re-export progress stage constants.
const (
	StageCompressing = romtype.StageCompressing
	StagePacking     = romtype.StagePacking
)
