// Package fdtable implements the per-task file-descriptor table and the
// concurrency discipline layered over it: a binary semaphore per table
// serializing table-shape operations, and a readers-first binary
// semaphore per slot guarding the underlying handle during Read/Write.
// The table semaphore is not shared between tables built by separate New
// calls, so it serializes operations on one table only.
package fdtable

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/inodefs/inodefs/file"
	"github.com/inodefs/inodefs/fserrors"
	"github.com/inodefs/inodefs/task"
)

// Capacity is the fixed number of slots per table; 0 and 1 are reserved
// for stdin/stdout and are never handed out by Open.
const Capacity = 128

const firstOpenable = 2

type slot struct {
	handle *file.Handle
	name   string
	owner  task.ID

	fdSem     *semaphore.Weighted // exclusive access to handle during I/O
	readCount int                 // mutated only while holding Table.mu
}

// Table is one task's file-descriptor table.
type Table struct {
	mu    *semaphore.Weighted // this table's binary semaphore (capacity 1)
	slots [Capacity]slot
}

// New builds an empty table with slots 0 and 1 left permanently closed
// (stdin/stdout are not routed through this file store).
func New() *Table {
	t := &Table{mu: semaphore.NewWeighted(1)}
	for i := range t.slots {
		t.slots[i].fdSem = semaphore.NewWeighted(1)
	}
	return t
}

func (t *Table) lock(ctx context.Context) error {
	return t.mu.Acquire(ctx, 1)
}

func (t *Table) unlock() {
	t.mu.Release(1)
}

// Open installs handle under the first free slot ≥ 2, owned by owner, and
// returns its fd.
func (t *Table) Open(owner task.ID, name string, handle *file.Handle) (int, error) {
	ctx := context.Background()
	if err := t.lock(ctx); err != nil {
		return -1, err
	}
	defer t.unlock()

	for fd := firstOpenable; fd < Capacity; fd++ {
		if t.slots[fd].handle == nil {
			t.slots[fd] = slot{handle: handle, name: name, owner: owner, fdSem: t.slots[fd].fdSem}
			return fd, nil
		}
	}
	return -1, fmt.Errorf("fdtable: table full: %w", fserrors.ErrNoSpace)
}

// Close closes fd's handle and frees the slot. Only the owning task may
// close it.
func (t *Table) Close(owner task.ID, fd int) error {
	ctx := context.Background()
	if err := t.lock(ctx); err != nil {
		return err
	}
	defer t.unlock()

	s, err := t.checkLocked(fd)
	if err != nil {
		return err
	}
	if s.owner != owner {
		return fserrors.ErrDenied
	}
	h := s.handle
	t.slots[fd] = slot{fdSem: s.fdSem}
	return h.Close()
}

func (t *Table) checkLocked(fd int) (*slot, error) {
	if fd < firstOpenable || fd >= Capacity {
		return nil, fserrors.ErrInvalid
	}
	s := &t.slots[fd]
	if s.handle == nil {
		return nil, fserrors.ErrInvalid
	}
	return s, nil
}

// Filesize, Seek, and Tell all run under the table's mutex for their whole
// duration.

func (t *Table) Filesize(fd int) (uint32, error) {
	ctx := context.Background()
	if err := t.lock(ctx); err != nil {
		return 0, err
	}
	defer t.unlock()
	s, err := t.checkLocked(fd)
	if err != nil {
		return 0, err
	}
	return s.handle.Length(), nil
}

func (t *Table) Seek(fd int, pos uint32) error {
	ctx := context.Background()
	if err := t.lock(ctx); err != nil {
		return err
	}
	defer t.unlock()
	s, err := t.checkLocked(fd)
	if err != nil {
		return err
	}
	s.handle.Seek(pos)
	return nil
}

func (t *Table) Tell(fd int) (uint32, error) {
	ctx := context.Background()
	if err := t.lock(ctx); err != nil {
		return 0, err
	}
	defer t.unlock()
	s, err := t.checkLocked(fd)
	if err != nil {
		return 0, err
	}
	return s.handle.Tell(), nil
}

// Read implements the readers-first discipline: readCount is mutated
// only while holding the table's mutex; the first concurrent reader
// acquires the per-fd semaphore, the last releases it. Continuous readers
// therefore starve a writer waiting on the same fd — intentional.
func (t *Table) Read(fd int, buf []byte) (int, error) {
	ctx := context.Background()
	s, err := t.beginRead(ctx, fd)
	if err != nil {
		return 0, err
	}
	defer t.endRead(ctx, s)
	return s.handle.Read(buf)
}

func (t *Table) beginRead(ctx context.Context, fd int) (*slot, error) {
	if err := t.lock(ctx); err != nil {
		return nil, err
	}
	defer t.unlock()

	s, err := t.checkLocked(fd)
	if err != nil {
		return nil, err
	}
	s.readCount++
	if s.readCount == 1 {
		if err := s.fdSem.Acquire(ctx, 1); err != nil {
			s.readCount--
			return nil, err
		}
	}
	return s, nil
}

func (t *Table) endRead(ctx context.Context, s *slot) {
	_ = t.lock(ctx)
	s.readCount--
	if s.readCount == 0 {
		s.fdSem.Release(1)
	}
	t.unlock()
}

// Write acquires the per-fd semaphore exclusively, so it waits out any
// in-flight readers (and any later reader waits behind it in turn).
func (t *Table) Write(fd int, buf []byte) (int, error) {
	ctx := context.Background()
	if err := t.lock(ctx); err != nil {
		return 0, err
	}
	s, err := t.checkLocked(fd)
	t.unlock()
	if err != nil {
		return 0, err
	}

	if err := s.fdSem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer s.fdSem.Release(1)
	return s.handle.Write(buf)
}

// CloseAll closes every open slot in ascending fd order, the cleanup due
// on task exit, ignoring ownership (the task is gone).
func (t *Table) CloseAll() {
	ctx := context.Background()
	_ = t.lock(ctx)
	defer t.unlock()
	for fd := firstOpenable; fd < Capacity; fd++ {
		if s := t.slots[fd]; s.handle != nil {
			_ = s.handle.Close()
			t.slots[fd] = slot{fdSem: s.fdSem}
		}
	}
}

// IsOpen reports whether any open slot in this table was opened under
// name.
func (t *Table) IsOpen(name string) bool {
	ctx := context.Background()
	_ = t.lock(ctx)
	defer t.unlock()
	for fd := firstOpenable; fd < Capacity; fd++ {
		if t.slots[fd].handle != nil && t.slots[fd].name == name {
			return true
		}
	}
	return false
}
