// Package file implements the per-open file handle: a cursor and a
// deny-write flag layered over a shared in-memory inode.
// Multiple handles may reference the same inode independently.
package file

import "github.com/inodefs/inodefs/inode"

// Handle is one open reference to an inode, with its own read/write
// cursor and its own record of whether it currently holds a deny-write.
type Handle struct {
	in        *inode.Inode
	pos       uint32
	denyWrite bool
}

// Open takes ownership of in (the caller's Reopen must already have
// happened) and returns a handle over it with the cursor at 0.
func Open(in *inode.Inode) *Handle {
	return &Handle{in: in}
}

// Close releases this handle's deny-write (if held) and its reference to
// the underlying inode.
func (h *Handle) Close() error {
	if h.denyWrite {
		h.in.AllowWrite()
		h.denyWrite = false
	}
	return h.in.Close()
}

// Inode exposes the underlying inode, e.g. to open a second handle over it.
func (h *Handle) Inode() *inode.Inode {
	return h.in
}

// Read reads into buf starting at the cursor and advances it by the
// number of bytes actually read.
func (h *Handle) Read(buf []byte) (int, error) {
	n, err := h.in.ReadAt(buf, h.pos)
	h.pos += uint32(n)
	return n, err
}

// Write writes buf starting at the cursor, growing the file if needed,
// and advances the cursor by the number of bytes actually written.
func (h *Handle) Write(buf []byte) (int, error) {
	n, err := h.in.WriteAt(buf, h.pos)
	h.pos += uint32(n)
	return n, err
}

// Seek repositions the cursor to an absolute byte offset. Seeking past
// end-of-file is permitted; the next write grows the file to meet it.
func (h *Handle) Seek(pos uint32) {
	h.pos = pos
}

// Tell returns the current cursor position.
func (h *Handle) Tell() uint32 {
	return h.pos
}

// Length delegates to the underlying inode.
func (h *Handle) Length() uint32 {
	return h.in.Length()
}

// DenyWrite marks this handle (and, through the inode, the file as a
// whole) as denying writes — used when a file is opened for execution.
func (h *Handle) DenyWrite() {
	if h.denyWrite {
		return
	}
	h.in.DenyWrite()
	h.denyWrite = true
}

// AllowWrite releases a deny-write previously taken by this handle.
func (h *Handle) AllowWrite() {
	if !h.denyWrite {
		return
	}
	h.in.AllowWrite()
	h.denyWrite = false
}
