package syscall_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodefs/inodefs/devicetest"
	"github.com/inodefs/inodefs/fdtable"
	"github.com/inodefs/inodefs/filesys"
	"github.com/inodefs/inodefs/syscall"
	"github.com/inodefs/inodefs/task"
)

type fakeProc struct {
	pid     int32
	status  int32
	execErr bool
}

func (f *fakeProc) Exec(cmd string) (int32, error) {
	if f.execErr {
		return -1, require.AnError
	}
	return f.pid, nil
}

func (f *fakeProc) Wait(pid int32) (int32, error) {
	return f.status, nil
}

type fakeHalter struct {
	halted bool
}

func (h *fakeHalter) Halt() { h.halted = true }

func writeCString(mem *task.FlatMemory, addr uint32, s string) {
	buf := mem.Backing()
	copy(buf[addr:], s)
	buf[int(addr)+len(s)] = 0
}

func newDispatcher(t *testing.T) (*syscall.Dispatcher, *task.FlatMemory, *filesys.FS) {
	t.Helper()
	dev := devicetest.New(2000)
	fs, err := filesys.Init(dev, true, nil)
	require.NoError(t, err)

	mem := task.NewFlatMemory(4096)
	var dir task.MemDir
	dir.Set(fs.Root())

	d := &syscall.Dispatcher{
		Task:  1,
		Name:  "test",
		Mem:   mem,
		Dir:   &dir,
		Table: fdtable.New(),
		FS:    fs,
	}
	return d, mem, fs
}

func TestCreateOpenWriteReadClose(t *testing.T) {
	d, mem, _ := newDispatcher(t)
	writeCString(mem, 0, "a.txt")

	ok := d.Dispatch(syscall.Create, [3]uint32{0, 10, 0})
	require.Equal(t, int32(1), ok)

	fd := d.Dispatch(syscall.Open, [3]uint32{0, 0, 0})
	require.GreaterOrEqual(t, fd, int32(2))

	writeCString(mem, 100, "payload")
	n := d.Dispatch(syscall.Write, [3]uint32{uint32(fd), 100, 7})
	require.Equal(t, int32(7), n)

	require.Equal(t, int32(0), d.Dispatch(syscall.Seek, [3]uint32{uint32(fd), 0, 0}))
	require.Equal(t, int32(0), d.Dispatch(syscall.Tell, [3]uint32{uint32(fd), 0, 0}))

	n = d.Dispatch(syscall.Read, [3]uint32{uint32(fd), 200, 7})
	require.Equal(t, int32(7), n)
	require.Equal(t, "payload", string(mem.Backing()[200:207]))

	require.Equal(t, int32(0), d.Dispatch(syscall.Close, [3]uint32{uint32(fd), 0, 0}))
}

func TestOpenMissingReturnsNegativeOne(t *testing.T) {
	d, mem, _ := newDispatcher(t)
	writeCString(mem, 0, "nope.txt")
	fd := d.Dispatch(syscall.Open, [3]uint32{0, 0, 0})
	require.Equal(t, int32(-1), fd)
}

func TestUnknownSyscallExits(t *testing.T) {
	d, _, _ := newDispatcher(t)
	result := d.Dispatch(syscall.Number(999), [3]uint32{})
	require.Equal(t, int32(-1), result)
	exited, val := d.Exited()
	require.True(t, exited)
	require.Equal(t, int32(-1), val)
}

func TestBadWritePointerExits(t *testing.T) {
	d, _, _ := newDispatcher(t)
	result := d.Dispatch(syscall.Write, [3]uint32{1, 100000, 10})
	require.Equal(t, int32(-1), result)
	exited, _ := d.Exited()
	require.True(t, exited)
}

func TestConsoleWriteOverCapWritesNothing(t *testing.T) {
	d, mem, _ := newDispatcher(t)
	big := make([]byte, 400)
	for i := range big {
		big[i] = 'x'
	}
	copy(mem.Backing(), big)
	n := d.Dispatch(syscall.Write, [3]uint32{1, 0, 400})
	require.Equal(t, int32(0), n)
}

func TestConsoleWriteAtCapSucceeds(t *testing.T) {
	d, mem, _ := newDispatcher(t)
	buf := make([]byte, 300)
	for i := range buf {
		buf[i] = 'x'
	}
	copy(mem.Backing(), buf)
	n := d.Dispatch(syscall.Write, [3]uint32{1, 0, 300})
	require.Equal(t, int32(300), n)
}

func TestExitClosesAllFds(t *testing.T) {
	d, mem, _ := newDispatcher(t)
	writeCString(mem, 0, "a.txt")
	require.Equal(t, int32(1), d.Dispatch(syscall.Create, [3]uint32{0, 0, 0}))
	fd := d.Dispatch(syscall.Open, [3]uint32{0, 0, 0})
	require.GreaterOrEqual(t, fd, int32(2))

	d.Dispatch(syscall.Exit, [3]uint32{7, 0, 0})
	exited, val := d.Exited()
	require.True(t, exited)
	require.Equal(t, int32(7), val)

	require.Equal(t, int32(-1), d.Dispatch(syscall.Filesize, [3]uint32{uint32(fd), 0, 0}))
	_, err := d.Table.Filesize(int(fd))
	require.Error(t, err)
}

func TestHaltCallsHaltHost(t *testing.T) {
	d, _, _ := newDispatcher(t)
	h := &fakeHalter{}
	d.Halter = h
	d.Dispatch(syscall.Halt, [3]uint32{})
	require.True(t, h.halted)
}

func TestExecAndWaitDelegateToProcessHost(t *testing.T) {
	d, mem, _ := newDispatcher(t)
	d.Proc = &fakeProc{pid: 42, status: 3}
	writeCString(mem, 0, "child")

	pid := d.Dispatch(syscall.Exec, [3]uint32{0, 0, 0})
	require.Equal(t, int32(42), pid)

	status := d.Dispatch(syscall.Wait, [3]uint32{42, 0, 0})
	require.Equal(t, int32(3), status)
}
