// Package path implements path splitting and resolution over the
// directory layer: absolute vs relative paths, "." and "..", and the
// per-task current-directory notion. It holds no state of its own —
// callers own the task's current-directory slot and pass it in.
package path

import (
	"strings"

	"github.com/inodefs/inodefs/directory"
	"github.com/inodefs/inodefs/fserrors"
	"github.com/inodefs/inodefs/inode"
)

// split breaks p into its non-empty components; "//" and a leading or
// trailing "/" all collapse away.
func split(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Resolve walks every component of p except the last, starting from root
// if p is absolute (or there is no current directory) and from cwd
// otherwise. It returns the resulting directory — owned by the caller, who
// must Close it — and the final path component verbatim (which may itself
// be "." or ".."; interpreting it is the caller's job, since create,
// mkdir, and chdir each treat it differently).
func Resolve(store *inode.Store, root *directory.Dir, cwd *directory.Dir, p string) (dir *directory.Dir, finalName string, err error) {
	comps := split(p)

	var cur *directory.Dir
	if strings.HasPrefix(p, "/") || cwd == nil {
		cur = root.Reopen()
	} else {
		cur = cwd.Reopen()
	}

	if len(comps) == 0 {
		return cur, "", nil
	}

	for _, c := range comps[:len(comps)-1] {
		next, err := step(store, cur, c)
		if err != nil {
			_ = cur.Close()
			return nil, "", err
		}
		_ = cur.Close()
		cur = next
	}
	return cur, comps[len(comps)-1], nil
}

// step advances cur by one path component, interpreting "." and "..".
func step(store *inode.Store, cur *directory.Dir, name string) (*directory.Dir, error) {
	switch name {
	case ".":
		return cur.Reopen(), nil
	case "..":
		parentIn, err := cur.Parent(store)
		if err != nil {
			return nil, err
		}
		return directory.Open(parentIn), nil
	default:
		in, err := cur.Lookup(store, name)
		if err != nil {
			return nil, err
		}
		if !in.IsDir() {
			_ = in.Close()
			return nil, fserrors.ErrInvalid
		}
		return directory.Open(in), nil
	}
}

// ChangeDir resolves p to (dir, name) and interprets name to yield the new
// current directory: "." or "" leaves dir itself, ".." its parent,
// anything else a lookup inside dir that must itself be a directory. The
// caller is responsible for closing its old current directory and
// installing the returned one in its place.
func ChangeDir(store *inode.Store, root *directory.Dir, cwd *directory.Dir, p string) (*directory.Dir, error) {
	dir, name, err := Resolve(store, root, cwd, p)
	if err != nil {
		return nil, err
	}

	switch name {
	case "", ".":
		return dir, nil
	case "..":
		parentIn, err := dir.Parent(store)
		_ = dir.Close()
		if err != nil {
			return nil, err
		}
		return directory.Open(parentIn), nil
	default:
		in, err := dir.Lookup(store, name)
		_ = dir.Close()
		if err != nil {
			return nil, err
		}
		if !in.IsDir() {
			_ = in.Close()
			return nil, fserrors.ErrInvalid
		}
		return directory.Open(in), nil
	}
}
