// Package syscall implements the system-call dispatch table: argument
// validation against a task's address space, routing into the FD table
// and filesystem façade, and the exit(-1) policy for protocol violations.
package syscall

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/inodefs/inodefs/directory"
	"github.com/inodefs/inodefs/fdtable"
	"github.com/inodefs/inodefs/filesys"
	"github.com/inodefs/inodefs/fserrors"
	"github.com/inodefs/inodefs/task"
)

// Number identifies a syscall by number.
type Number uint32

const (
	Halt Number = iota
	Exit
	Exec
	Wait
	Create
	Remove
	Open
	Filesize
	Read
	Write
	Seek
	Tell
	Close
)

const (
	maxPathLen = 511
	consoleCap = 300 // fd=1 writes are capped per call
	consoleFD  = 1
)

// ProcessHost is the external collaborator that actually starts and waits
// on child tasks; exec/wait are routed to it. Process/loader concerns are
// out of scope here, so it is modeled the same way as the block device: a
// narrow interface.
type ProcessHost interface {
	Exec(cmd string) (pid int32, err error)
	Wait(pid int32) (status int32, err error)
}

// HaltHost lets halt actually power the device off; separate from
// ProcessHost since halting has nothing to do with child processes.
type HaltHost interface {
	Halt()
}

// Dispatcher ties one task's collaborators together: its address space,
// current-directory slot, FD table, and the mounted filesystem, plus the
// process host for exec/wait.
type Dispatcher struct {
	Task    task.ID
	Name    string // printed by exit, e.g. "shell: exit(1)"
	Mem     task.AddressSpace
	Dir     task.CurrentDir
	Table   *fdtable.Table
	FS      *filesys.FS
	Proc    ProcessHost
	Halter  HaltHost
	Log     *logrus.Logger
	exited  bool
	exitVal int32
}

// Exited reports whether Exit (directly, or via a protocol violation) has
// already fired for this task.
func (d *Dispatcher) Exited() (bool, int32) {
	return d.exited, d.exitVal
}

// Dispatch decodes and executes one syscall. An unknown number behaves
// exactly like a protocol-violating argument: it exits the task with -1.
func (d *Dispatcher) Dispatch(num Number, args [3]uint32) int32 {
	if d.exited {
		return -1
	}

	switch num {
	case Halt:
		if d.Halter != nil {
			d.Halter.Halt()
		}
		return 0
	case Exit:
		d.doExit(int32(args[0]))
		return 0
	case Exec:
		return d.exec(args[0])
	case Wait:
		return d.wait(int32(args[0]))
	case Create:
		return d.create(args[0], args[1])
	case Remove:
		return d.remove(args[0])
	case Open:
		return d.open(args[0])
	case Filesize:
		return d.filesize(int(args[0]))
	case Read:
		return d.read(int(args[0]), args[1], args[2])
	case Write:
		return d.write(int(args[0]), args[1], args[2])
	case Seek:
		return d.seek(int(args[0]), args[1])
	case Tell:
		return d.tell(int(args[0]))
	case Close:
		return d.close(int(args[0]))
	default:
		d.logBadArg("unknown syscall number")
		d.doExit(-1)
		return -1
	}
}

func (d *Dispatcher) doExit(status int32) {
	if status < 0 {
		status = -1
	}
	d.exited = true
	d.exitVal = status
	d.Table.CloseAll()
	if d.Log != nil {
		d.Log.Infof("%s: exit(%d)", d.Name, status)
	}
}

func (d *Dispatcher) logBadArg(why string) {
	if d.Log != nil {
		d.Log.WithField("task", d.Task).Warn("syscall: " + why)
	}
}

func (d *Dispatcher) readPath(addr uint32) (string, bool) {
	s, err := d.Mem.ReadCString(addr, maxPathLen+1)
	if err != nil || len(s) > maxPathLen {
		d.logBadArg("bad path pointer")
		return "", false
	}
	return s, true
}

func (d *Dispatcher) exec(cmdAddr uint32) int32 {
	cmd, ok := d.readPath(cmdAddr)
	if !ok {
		d.doExit(-1)
		return -1
	}
	if d.Proc == nil {
		return -1
	}
	pid, err := d.Proc.Exec(cmd)
	if err != nil {
		return -1
	}
	return pid
}

func (d *Dispatcher) wait(pid int32) int32 {
	if d.Proc == nil {
		return -1
	}
	status, err := d.Proc.Wait(pid)
	if err != nil {
		return -1
	}
	return status
}

func (d *Dispatcher) create(pathAddr uint32, size uint32) int32 {
	p, ok := d.readPath(pathAddr)
	if !ok {
		d.doExit(-1)
		return -1
	}
	err := d.FS.Create(d.currentDir(), p, size)
	if err != nil {
		return boolResult(false)
	}
	return boolResult(true)
}

func (d *Dispatcher) remove(pathAddr uint32) int32 {
	p, ok := d.readPath(pathAddr)
	if !ok {
		d.doExit(-1)
		return -1
	}
	return boolResult(d.FS.Remove(d.currentDir(), p) == nil)
}

func (d *Dispatcher) open(pathAddr uint32) int32 {
	p, ok := d.readPath(pathAddr)
	if !ok {
		d.doExit(-1)
		return -1
	}
	h, err := d.FS.Open(d.currentDir(), p)
	if err != nil {
		return -1
	}
	fd, err := d.Table.Open(d.Task, p, h)
	if err != nil {
		_ = h.Close()
		return -1
	}
	return int32(fd)
}

func (d *Dispatcher) filesize(fd int) int32 {
	n, err := d.Table.Filesize(fd)
	if err != nil {
		return -1
	}
	return int32(n)
}

func (d *Dispatcher) read(fd int, bufAddr uint32, size uint32) int32 {
	if !d.Mem.Valid(bufAddr, int(size)) {
		d.logBadArg("bad read buffer pointer")
		d.doExit(-1)
		return -1
	}
	buf := make([]byte, size)
	n, err := d.Table.Read(fd, buf)
	if err != nil && !errors.Is(err, fserrors.ErrNotFound) && n == 0 {
		return -1
	}
	if werr := d.Mem.WriteBytes(bufAddr, buf[:n]); werr != nil {
		d.doExit(-1)
		return -1
	}
	return int32(n)
}

func (d *Dispatcher) write(fd int, bufAddr uint32, size uint32) int32 {
	if !d.Mem.Valid(bufAddr, int(size)) {
		d.logBadArg("bad write buffer pointer")
		d.doExit(-1)
		return -1
	}
	buf, err := d.Mem.ReadBytes(bufAddr, int(size))
	if err != nil {
		d.doExit(-1)
		return -1
	}

	if fd == consoleFD {
		if len(buf) > consoleCap {
			return 0
		}
		if d.Log != nil {
			d.Log.Infof("%s: %s", d.Name, string(buf))
		}
		return int32(len(buf))
	}

	n, err := d.Table.Write(fd, buf)
	if err != nil {
		return -1
	}
	return int32(n)
}

func (d *Dispatcher) seek(fd int, pos uint32) int32 {
	if err := d.Table.Seek(fd, pos); err != nil {
		return -1
	}
	return 0
}

func (d *Dispatcher) tell(fd int) int32 {
	pos, err := d.Table.Tell(fd)
	if err != nil {
		return -1
	}
	return int32(pos)
}

func (d *Dispatcher) close(fd int) int32 {
	if err := d.Table.Close(d.Task, fd); err != nil {
		return -1
	}
	return 0
}

func (d *Dispatcher) currentDir() *directory.Dir {
	if d.Dir == nil {
		return nil
	}
	return d.Dir.Get()
}

func boolResult(ok bool) int32 {
	if ok {
		return 1
	}
	return 0
}
