package reconcile

import (
	"path"
	"strings"
)

type ChangeType int

const (
	ChangeUnknown ChangeType = iota
	ChangeAdd
	ChangeModify
	ChangeDelete
	ChangeRename
)

func (t ChangeType) String() string {
	switch t {
	case ChangeAdd:
		return "add"
	case ChangeModify:
		return "modify"
	case ChangeDelete:
		return "delete"
	case ChangeRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Modification is one file change within a history unit, with slash-separated
// paths relative to the content root. PreviousPath is set for deletes and
// renames, NewPath for adds, modifies and renames. Content holds the file
// bytes after the change; it is nil for deletes.
type Modification struct {
	PreviousPath string
	NewPath      string
	Type         ChangeType
	Content      []byte
}

// Path is the logical identity of the modified file: the new path when the
// file still exists, otherwise the old one.
func (m Modification) Path() string {
	if m.NewPath != "" {
		return m.NewPath
	}
	return m.PreviousPath
}

func pageTitle(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func ancestorTitles(p string) []string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return nil
	}
	return strings.Split(dir, "/")
}

func joinTitles(ancestors []string, title string) string {
	if len(ancestors) == 0 {
		return title
	}
	return strings.Join(ancestors, " / ") + " / " + title
}
