package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrAmbiguousTitle          = errors.New("ambiguous title")
	ErrUnreconcilable          = errors.New("unreconcilable remote state")
	ErrAncestorMismatch        = errors.New("ancestor mismatch")
	ErrUnsupportedModification = errors.New("unsupported modification")
)

// Page is the engine's view of a remote node. Ancestors holds the
// root-first title chain excluding the space homepage; ParentID is the id
// of the immediate parent, homepage included. Version is 0 when the store
// reported none.
type Page struct {
	ID            string
	Title         string
	Version       int
	ParentID      string
	Ancestors     []string
	HasChildPages bool
}

// Lookup is the three-way result of a title search: Matches counts every
// live page carrying the title, and Page is set only when Matches is 1.
type Lookup struct {
	Matches int
	Page    *Page
}

type CreateRequest struct {
	Title    string
	ParentID string // empty creates under the space homepage
	Body     string
}

type UpdateRequest struct {
	Title    string
	Version  int
	ParentID string  // empty leaves the parent unchanged
	Body     *string // nil leaves the body unchanged
}

type Accessor interface {
	FindPage(ctx context.Context, title string) (Lookup, error)
	CreatePage(ctx context.Context, req CreateRequest) (*Page, error)
	UpdatePage(ctx context.Context, id string, req UpdateRequest) (*Page, error)
	DeletePage(ctx context.Context, id string) error
}

type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Action is a single remote mutation targeting one titled page. Every
// implementation re-reads remote state at execute time, so a replayed run
// detects already-applied work instead of duplicating or corrupting it.
type Action interface {
	Execute(ctx context.Context, acc Accessor, log Logger) error
}

func fetchTarget(ctx context.Context, acc Accessor, title string) (*Page, error) {
	found, err := acc.FindPage(ctx, title)
	if err != nil {
		return nil, err
	}
	if found.Matches > 1 {
		return nil, fmt.Errorf("%d pages titled %q: %w", found.Matches, title, ErrAmbiguousTitle)
	}
	return found.Page, nil
}

func nextVersion(p *Page) int {
	if p.Version > 0 {
		return p.Version + 1
	}
	return 2
}

// indexPageBody is the placeholder body for pages standing in for
// filesystem folders: a live listing of their child pages.
const indexPageBody = `<p><ac:structured-macro ac:name="children" ac:schema-version="2" ac:macro-id="92c7a2c4-5cca-4ecf-81a2-946ef7388c71" /></p>`

type createPage struct {
	title     string
	body      string
	ancestors []string
}

func (a createPage) Execute(ctx context.Context, acc Accessor, log Logger) error {
	_, err := a.run(ctx, acc, log)
	return err
}

func (a createPage) run(ctx context.Context, acc Accessor, log Logger) (*Page, error) {
	page, err := fetchTarget(ctx, acc, a.title)
	if err != nil {
		return nil, err
	}
	if page != nil {
		log.Printf("create %s: page already exists, updating instead", a.title)
		return updatePage{title: a.title, body: a.body, ancestors: a.ancestors}.run(ctx, acc, log)
	}
	var parentID string
	if len(a.ancestors) > 0 {
		parent, err := ensureAncestors{chain: a.ancestors}.run(ctx, acc, log)
		if err != nil {
			return nil, err
		}
		parentID = parent.ID
	}
	log.Printf("creating %s", joinTitles(a.ancestors, a.title))
	return acc.CreatePage(ctx, CreateRequest{Title: a.title, ParentID: parentID, Body: a.body})
}

type updatePage struct {
	title     string
	body      string
	ancestors []string
}

func (a updatePage) Execute(ctx context.Context, acc Accessor, log Logger) error {
	_, err := a.run(ctx, acc, log)
	return err
}

func (a updatePage) run(ctx context.Context, acc Accessor, log Logger) (*Page, error) {
	page, err := fetchTarget(ctx, acc, a.title)
	if err != nil {
		return nil, err
	}
	if page == nil {
		log.Printf("update %s: page does not exist, creating instead", a.title)
		return createPage{title: a.title, body: a.body, ancestors: a.ancestors}.run(ctx, acc, log)
	}
	if !slices.Equal(a.ancestors, page.Ancestors) {
		return nil, fmt.Errorf("update %s: expected ancestors %v, found %v, use a move instead: %w",
			a.title, a.ancestors, page.Ancestors, ErrAncestorMismatch)
	}
	body := a.body
	log.Printf("updating %s", joinTitles(a.ancestors, a.title))
	return acc.UpdatePage(ctx, page.ID, UpdateRequest{
		Title:    a.title,
		Version:  nextVersion(page),
		ParentID: page.ParentID,
		Body:     &body,
	})
}

type ensureAncestors struct {
	chain []string // root-first ancestor titles, never empty
}

func (a ensureAncestors) Execute(ctx context.Context, acc Accessor, log Logger) error {
	_, err := a.run(ctx, acc, log)
	return err
}

// run resolves the immediate parent named by the last title in the chain,
// creating it (and recursively its own missing ancestors, root-first) when
// it does not exist yet.
func (a ensureAncestors) run(ctx context.Context, acc Accessor, log Logger) (*Page, error) {
	leaf := a.chain[len(a.chain)-1]
	page, err := fetchTarget(ctx, acc, leaf)
	if err != nil {
		return nil, err
	}
	if page != nil {
		log.Printf("ancestor %s already exists with id %s", leaf, page.ID)
		return page, nil
	}
	log.Printf("ancestor %s does not exist, creating it", leaf)
	return createPage{title: leaf, body: indexPageBody, ancestors: a.chain[:len(a.chain)-1]}.run(ctx, acc, log)
}

type deletePage struct {
	title string
}

func (a deletePage) Execute(ctx context.Context, acc Accessor, log Logger) error {
	page, err := fetchTarget(ctx, acc, a.title)
	if err != nil {
		return err
	}
	if page == nil {
		log.Printf("delete %s: page is already gone", a.title)
		return nil
	}
	log.Printf("deleting %s", joinTitles(page.Ancestors, a.title))
	if err := acc.DeletePage(ctx, page.ID); err != nil {
		return err
	}
	if len(page.Ancestors) > 0 {
		return cleanupEmptyAncestors{title: page.Ancestors[len(page.Ancestors)-1]}.Execute(ctx, acc, log)
	}
	return nil
}

type cleanupEmptyAncestors struct {
	title string
}

func (a cleanupEmptyAncestors) Execute(ctx context.Context, acc Accessor, log Logger) error {
	page, err := fetchTarget(ctx, acc, a.title)
	if err != nil {
		return err
	}
	if page == nil {
		log.Printf("cleanup %s: page is already gone", a.title)
		return nil
	}
	if page.HasChildPages {
		log.Printf("cleanup %s: page still has children, keeping it", a.title)
		return nil
	}
	log.Printf("cleaning up empty ancestor %s", a.title)
	return deletePage{title: a.title}.Execute(ctx, acc, log)
}

type movePage struct {
	title     string
	newTitle  string
	ancestors []string
}

// Execute retitles and reparents a page without touching its body. Content
// changes accompanying a move are applied by a separate update queued after
// the move.
func (a movePage) Execute(ctx context.Context, acc Accessor, log Logger) error {
	page, err := fetchTarget(ctx, acc, a.title)
	if err != nil {
		return err
	}
	if page == nil {
		probe, err := acc.FindPage(ctx, a.newTitle)
		if err != nil {
			return err
		}
		switch {
		case probe.Matches == 1:
			log.Printf("move %s: already moved to %s", a.title, a.newTitle)
			return nil
		case probe.Matches > 1:
			return fmt.Errorf("%d pages titled %q: %w", probe.Matches, a.newTitle, ErrAmbiguousTitle)
		default:
			return fmt.Errorf("move %s to %s: neither source nor destination exists: %w",
				a.title, a.newTitle, ErrUnreconcilable)
		}
	}
	var parentID string
	if len(a.ancestors) > 0 {
		parent, err := ensureAncestors{chain: a.ancestors}.run(ctx, acc, log)
		if err != nil {
			return err
		}
		parentID = parent.ID
	}
	log.Printf("moving %s to %s", joinTitles(page.Ancestors, a.title), joinTitles(a.ancestors, a.newTitle))
	if _, err := acc.UpdatePage(ctx, page.ID, UpdateRequest{
		Title:    a.newTitle,
		Version:  nextVersion(page),
		ParentID: parentID,
	}); err != nil {
		return err
	}
	if len(page.Ancestors) > 0 {
		return cleanupEmptyAncestors{title: page.Ancestors[len(page.Ancestors)-1]}.Execute(ctx, acc, log)
	}
	return nil
}
