package task

import (
	"fmt"

	"github.com/inodefs/inodefs/fserrors"
)

// errBadPointer mirrors the kernel-address/unmapped-pointer case mapped to
// BadArg; it wraps fserrors.ErrBadArg so the syscall dispatcher's
// errors.Is checks see it regardless of layer.
var errBadPointer = fmt.Errorf("task: invalid user pointer: %w", fserrors.ErrBadArg)
