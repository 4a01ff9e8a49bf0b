// Package fserrors defines the error kinds shared across the file-store
// layers (spec error taxonomy: no space, not found, already exists,
// invalid argument, permission denied, on-disk corruption). Callers
// (notably the syscall dispatcher) discriminate with errors.Is against
// these sentinels rather than inspecting message text.
package fserrors

import "errors"

var (
	// ErrNoSpace is returned when the free-map cannot satisfy an allocation.
	ErrNoSpace = errors.New("fserrors: no space left on device")
	// ErrNotFound is returned when a path component or directory entry is missing.
	ErrNotFound = errors.New("fserrors: not found")
	// ErrAlreadyExists is returned when a directory entry with that name already exists.
	ErrAlreadyExists = errors.New("fserrors: already exists")
	// ErrInvalid covers an empty/too-long/reserved name, or a path that
	// traverses a non-directory.
	ErrInvalid = errors.New("fserrors: invalid argument")
	// ErrDenied is returned for a close attempted by a non-owning task. A
	// write while deny-write is in effect is not an error: it writes 0 bytes.
	ErrDenied = errors.New("fserrors: permission denied")
	// ErrIoCorrupt is returned when an inode's magic number fails to match.
	ErrIoCorrupt = errors.New("fserrors: on-disk structure is corrupt")
	// ErrBadArg is returned when a syscall argument fails validation: a
	// kernel-address or unmapped user pointer.
	ErrBadArg = errors.New("fserrors: bad argument")
)
