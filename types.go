package rescomp

import "github.com/meigma/rescomp/internal/romtype"

// Re-export entry types from internal/romtype.
type (
	// Entry is one decoded directory-table record.
	Entry = romtype.Entry

	// Type tags an entry as a directory or a regular file.
	Type = romtype.Type
)

// Entry type tags as stored in the image.
const (
	TypeDir  = romtype.TypeDir
	TypeFile = romtype.TypeFile
)

// Layout constants.
const (
	// HeaderSize is the size of the image header: the total size field
	// followed by the unnamed root entry.
	HeaderSize = romtype.HeaderSize

	// EntryBaseSize is the size of an entry record without its name.
	EntryBaseSize = romtype.EntryBaseSize

	// MaxNameLen is the longest name an entry can carry, in bytes.
	MaxNameLen = romtype.MaxNameLen

	// DataAlignment is the alignment of every file and subdirectory data region.
	DataAlignment = 4
)
