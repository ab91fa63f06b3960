package confluence

import (
	"context"

	"github.com/pagebridge/pagebridge/internal/reconcile"
)

const lookupExpand = "version,ancestors,childTypes.page"

type Accessor struct {
	client *Client
}

func NewAccessor(client *Client) *Accessor {
	return &Accessor{client: client}
}

func (a *Accessor) FindPage(ctx context.Context, title string) (reconcile.Lookup, error) {
	list, err := a.client.SearchContent(ctx, title, lookupExpand)
	if err != nil {
		return reconcile.Lookup{}, err
	}
	lookup := reconcile.Lookup{Matches: list.Size}
	if list.Size == 1 && len(list.Results) == 1 {
		lookup.Page = pageFromContent(&list.Results[0])
	}
	return lookup, nil
}

func (a *Accessor) CreatePage(ctx context.Context, req reconcile.CreateRequest) (*reconcile.Page, error) {
	create := &CreateContent{
		Title: req.Title,
		Type:  "page",
		Space: &Space{Key: a.client.SpaceKey()},
		Body:  storageBody(req.Body),
	}
	if req.ParentID != "" {
		create.Ancestors = []Content{{ID: req.ParentID}}
	}
	created, err := a.client.CreateContent(ctx, create)
	if err != nil {
		return nil, err
	}
	return pageFromContent(created), nil
}

func (a *Accessor) UpdatePage(ctx context.Context, id string, req reconcile.UpdateRequest) (*reconcile.Page, error) {
	update := &UpdateContent{
		Title:   req.Title,
		Type:    "page",
		Version: &Version{Number: req.Version},
	}
	if req.ParentID != "" {
		update.Ancestors = []Content{{ID: req.ParentID}}
	}
	if req.Body != nil {
		update.Body = storageBody(*req.Body)
	}
	updated, err := a.client.UpdateContent(ctx, id, update)
	if err != nil {
		return nil, err
	}
	return pageFromContent(updated), nil
}

func (a *Accessor) DeletePage(ctx context.Context, id string) error {
	return a.client.DeleteContent(ctx, id)
}

// pageFromContent drops the space homepage (ancestors[0]) from the ancestor
// titles; the remote prepends it to every page in the space.
func pageFromContent(content *Content) *reconcile.Page {
	page := &reconcile.Page{ID: content.ID, Title: content.Title}
	if content.Version != nil {
		page.Version = content.Version.Number
	}
	if n := len(content.Ancestors); n > 0 {
		page.ParentID = content.Ancestors[n-1].ID
		for _, ancestor := range content.Ancestors[1:] {
			page.Ancestors = append(page.Ancestors, ancestor.Title)
		}
	}
	if content.ChildTypes != nil && content.ChildTypes.Page != nil {
		page.HasChildPages = content.ChildTypes.Page.Value
	}
	return page
}
