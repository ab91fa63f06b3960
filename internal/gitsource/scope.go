package gitsource

import (
	"path"
	"strings"

	"github.com/pagebridge/pagebridge/internal/reconcile"
)

// ScopeToDir narrows modifications to the markdown files under dir
// (slash-separated, relative to the repository root; empty means the whole
// repository) and relativizes their paths. A rename crossing the boundary
// degrades to an add or a delete of the half that is in scope.
func ScopeToDir(mods []reconcile.Modification, dir string) []reconcile.Modification {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	var scoped []reconcile.Modification
	for _, mod := range mods {
		oldPath, oldIn := relativeTo(mod.PreviousPath, dir)
		newPath, newIn := relativeTo(mod.NewPath, dir)
		switch mod.Type {
		case reconcile.ChangeRename:
			switch {
			case oldIn && newIn:
				scoped = append(scoped, reconcile.Modification{
					Type:         reconcile.ChangeRename,
					PreviousPath: oldPath,
					NewPath:      newPath,
					Content:      mod.Content,
				})
			case oldIn:
				scoped = append(scoped, reconcile.Modification{
					Type:         reconcile.ChangeDelete,
					PreviousPath: oldPath,
				})
			case newIn:
				scoped = append(scoped, reconcile.Modification{
					Type:    reconcile.ChangeAdd,
					NewPath: newPath,
					Content: mod.Content,
				})
			}
		case reconcile.ChangeAdd, reconcile.ChangeModify:
			if newIn {
				scoped = append(scoped, reconcile.Modification{
					Type:    mod.Type,
					NewPath: newPath,
					Content: mod.Content,
				})
			}
		case reconcile.ChangeDelete:
			if oldIn {
				scoped = append(scoped, reconcile.Modification{
					Type:         reconcile.ChangeDelete,
					PreviousPath: oldPath,
				})
			}
		}
	}
	return scoped
}

func relativeTo(p, dir string) (string, bool) {
	if p == "" || !strings.EqualFold(path.Ext(p), ".md") {
		return "", false
	}
	p = path.Clean(p)
	if dir == "" {
		return p, true
	}
	prefix := dir + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", false
	}
	return strings.TrimPrefix(p, prefix), true
}
