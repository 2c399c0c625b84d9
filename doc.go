// Package rescomp compiles a directory tree into a read-only filesystem
// image meant to be linked into firmware as a constant byte array.
//
// An image is a single flat, little-endian blob:
//
//	offset  size  field
//	0       4     total image size
//	4       1     root entry type (1 = directory)
//	5       4     root entry data offset (always 14)
//	9       4     root entry data length
//	13      1     root entry name length (0)
//	14      ...   directory tables and file data
//
// A directory's data region is its table of entry records, packed back to
// back. Every table opens with a "." record that points at the table
// itself; every table except the root's follows with a ".." record that
// points at the parent table. The remaining records describe the
// directory's children in byte-wise name order. Each record is
//
//	type:u8 data_offset:u32 data_length:u32 name_length:u8 name:[name_length]byte
//
// File and subdirectory data regions start on four-byte boundaries so the
// firmware can read them with word-aligned loads. Tables themselves are
// not padded.
//
// Compile builds an image under a hard capacity ceiling and fails with
// ErrCapacityExceeded rather than grow past it. Open reads an image back
// as an fs.FS.
package rescomp
