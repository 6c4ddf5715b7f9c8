package automation

import (
	"errors"
	"fmt"

	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/platform"
)

// ErrWindowGone is returned when the root window disappeared before or
// during enumeration.
var ErrWindowGone = model.ErrWindowGone

// BuildTree snapshots the control hierarchy under root. Children are attached
// in enumeration order; a child reported before its parent is attached once
// the parent shows up, and children whose parent never appears are dropped.
func BuildTree(r platform.Reader, root model.ControlHandle) (*model.ControlTree, error) {
	if !r.IsWindow(root) {
		return nil, ErrWindowGone
	}
	children, err := r.EnumChildren(root)
	if err != nil {
		if errors.Is(err, ErrWindowGone) || !r.IsWindow(root) {
			return nil, ErrWindowGone
		}
		return nil, fmt.Errorf("enumerate %#x: %w", uintptr(root), err)
	}

	tree := model.NewControlTree(root)
	pending := children
	for len(pending) > 0 {
		var deferred []model.ChildWindow
		for _, c := range pending {
			if tree.Contains(c.Handle) {
				continue
			}
			if !tree.Contains(c.Parent) {
				deferred = append(deferred, c)
				continue
			}
			tree.Attach(c.Parent, c.Handle)
		}
		if len(deferred) == len(pending) {
			break
		}
		pending = deferred
	}
	return tree, nil
}
