// Package romtype holds the types and errors shared between the image
// builder, the entry codec and the image reader.
package romtype

// Type tags an entry as a directory or a regular file.
type Type uint8

const (
	TypeDir  Type = 1
	TypeFile Type = 2
)

// String returns the human-readable name of the entry type.
func (t Type) String() string {
	switch t {
	case TypeDir:
		return "dir"
	case TypeFile:
		return "file"
	default:
		return "unknown"
	}
}

const (
	// EntryBaseSize is the fixed part of an entry record: type (1),
	// data offset (4), data length (4) and name length (1).
	EntryBaseSize = 1 + 4 + 4 + 1

	// HeaderSize covers the image length field followed by the unnamed
	// root entry.
	HeaderSize = 4 + EntryBaseSize

	// RootEntryOffset is where the root entry starts inside the header.
	RootEntryOffset = 4

	// MaxNameLen is the longest name the one-byte length field can hold.
	MaxNameLen = 255

	// SelfName and ParentName are the names of the synthetic entries
	// that open every directory table.
	SelfName   = "."
	ParentName = ".."
)

// Entry is one decoded directory-table record.
type Entry struct {
	// Type is TypeDir or TypeFile.
	Type Type

	// DataOffset is the absolute offset of the entry's data region.
	DataOffset uint32

	// DataLength is the byte length of the entry's data region. For
	// directories it is the size of the directory table.
	DataLength uint32

	// Name is the raw entry name. It is empty only for the root entry.
	Name string
}

// IsDir reports whether the entry describes a directory.
func (e *Entry) IsDir() bool {
	return e.Type == TypeDir
}

// IsSynthetic reports whether the entry is a "." or ".." record.
func (e *Entry) IsSynthetic() bool {
	return e.Name == SelfName || e.Name == ParentName
}
