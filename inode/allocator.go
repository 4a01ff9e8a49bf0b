package inode

// Allocator is the free-map's contribution to the inode layer: find n
// contiguous free sectors, or give sectors back. The inode store depends
// only on this interface so that the free-map (which itself persists
// through an inode) can sit on the other side of the dependency without an
// import cycle — the free-map package implements Allocator and imports
// this package concretely, not the reverse.
type Allocator interface {
	// Allocate finds n contiguous free sectors, marks them used, and
	// reports the first one. ok is false if no such run exists.
	Allocate(n int) (first uint32, ok bool)
	// Release marks n sectors starting at first free again. Panics if any
	// of them was already free (double-free).
	Release(first uint32, n int)
}
