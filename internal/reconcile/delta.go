package reconcile

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Compiler turns raw document bytes into the remote store's storage markup.
type Compiler interface {
	Compile(raw []byte) (string, error)
}

// Delta is the full set of remote mutations derived from one batch of
// modifications, separated into five buckets that execute as five
// back-to-back passes: deletes, startRenames, adds, finishRenames, updates.
// Renames are split through a collision-free temporary title so that a
// destination slot freed by a delete, or a destination folder created by an
// add, is in place before the final move runs.
type Delta struct {
	deletes       []Action
	startRenames  []Action
	adds          []Action
	finishRenames []Action
	updates       []Action
}

func BuildDelta(mods []Modification, comp Compiler) (*Delta, error) {
	d := &Delta{}
	for _, mod := range mods {
		p := mod.Path()
		if p == "" {
			continue
		}
		title := pageTitle(p)
		ancestors := ancestorTitles(p)

		switch mod.Type {
		case ChangeAdd:
			body, err := comp.Compile(mod.Content)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", p, err)
			}
			d.adds = append(d.adds, createPage{title: title, body: body, ancestors: ancestors})
		case ChangeModify:
			body, err := comp.Compile(mod.Content)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", p, err)
			}
			d.updates = append(d.updates, updatePage{title: title, body: body, ancestors: ancestors})
		case ChangeDelete:
			d.deletes = append(d.deletes, deletePage{title: title})
		case ChangeRename:
			if mod.PreviousPath == "" {
				return nil, fmt.Errorf("rename of %q carries no previous path: %w", p, ErrUnsupportedModification)
			}
			body, err := comp.Compile(mod.Content)
			if err != nil {
				return nil, fmt.Errorf("compile %s: %w", p, err)
			}
			oldTitle := pageTitle(mod.PreviousPath)
			tempTitle := ulid.Make().String() + "_" + oldTitle
			d.startRenames = append(d.startRenames, movePage{title: oldTitle, newTitle: tempTitle})
			d.finishRenames = append(d.finishRenames, movePage{title: tempTitle, newTitle: title, ancestors: ancestors})
			d.finishRenames = append(d.finishRenames, updatePage{title: title, body: body, ancestors: ancestors})
		default:
			return nil, fmt.Errorf("cannot process %s change to %q: %w", mod.Type, p, ErrUnsupportedModification)
		}
	}
	return d, nil
}

func (d *Delta) Size() int {
	return len(d.deletes) + len(d.startRenames) + len(d.adds) + len(d.finishRenames) + len(d.updates)
}

// Execute applies every action in bucket order, each bucket fully draining
// before the next starts. The first failure aborts the run; re-executing the
// same Delta afterwards is safe because every action detects already-applied
// work.
func (d *Delta) Execute(ctx context.Context, acc Accessor, log Logger) error {
	if log == nil {
		log = nopLogger{}
	}
	for _, bucket := range [][]Action{d.deletes, d.startRenames, d.adds, d.finishRenames, d.updates} {
		for _, act := range bucket {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := act.Execute(ctx, acc, log); err != nil {
				return err
			}
		}
	}
	return nil
}

// Describe lists the delta's operations in execution order, one line each.
func (d *Delta) Describe() []string {
	lines := make([]string, 0, d.Size())
	for _, bucket := range [][]Action{d.deletes, d.startRenames, d.adds, d.finishRenames, d.updates} {
		for _, act := range bucket {
			lines = append(lines, describeAction(act))
		}
	}
	return lines
}

func describeAction(act Action) string {
	switch a := act.(type) {
	case createPage:
		return "CREATE " + joinTitles(a.ancestors, a.title)
	case updatePage:
		return "UPDATE " + joinTitles(a.ancestors, a.title)
	case deletePage:
		return "DELETE " + a.title
	case movePage:
		return "RENAME " + a.title + " -> " + joinTitles(a.ancestors, a.newTitle)
	default:
		return fmt.Sprintf("%T", act)
	}
}
