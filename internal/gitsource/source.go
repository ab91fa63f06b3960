package gitsource

import (
	"context"
	"errors"
	"fmt"
	"slices"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/pagebridge/pagebridge/internal/reconcile"
)

type Source struct {
	repo *git.Repository
}

// Open locates a repository at dir, searching parent directories the way
// the git CLI does.
func Open(dir string) (*Source, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	return &Source{repo: repo}, nil
}

func (s *Source) Root() (string, error) {
	worktree, err := s.repo.Worktree()
	if err != nil {
		return "", err
	}
	return worktree.Filesystem.Root(), nil
}

// CommitsAfter returns the first-parent chain from since (exclusive) to
// branch (inclusive), oldest first. An empty since returns the full
// first-parent history of branch.
func (s *Source) CommitsAfter(branch, since string) ([]*object.Commit, error) {
	tip, err := s.resolveCommit(branch)
	if err != nil {
		return nil, err
	}
	var sinceHash plumbing.Hash
	if since != "" {
		sinceCommit, err := s.resolveCommit(since)
		if err != nil {
			return nil, err
		}
		sinceHash = sinceCommit.Hash
		if sinceHash == tip.Hash {
			return nil, nil
		}
	}
	var commits []*object.Commit
	current := tip
	for {
		commits = append(commits, current)
		parent, err := current.Parent(0)
		if errors.Is(err, object.ErrParentNotFound) {
			if since != "" {
				return nil, fmt.Errorf("%s is not on the first-parent history of %s", since, branch)
			}
			break
		}
		if err != nil {
			return nil, err
		}
		if since != "" && parent.Hash == sinceHash {
			break
		}
		current = parent
	}
	slices.Reverse(commits)
	return commits, nil
}

// Changes diffs a commit against its first parent (or the empty tree for
// a root commit) and maps each entry to a Modification. Renames are
// detected by content similarity. Mode-only changes are dropped.
func (s *Source) Changes(ctx context.Context, commit *object.Commit) ([]reconcile.Modification, error) {
	commitTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, err
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, parentTree, commitTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, err
	}

	var mods []reconcile.Modification
	for _, change := range changes {
		switch {
		case change.From.Name == "":
			content, err := fileContent(commitTree, change.To.Name)
			if err != nil {
				return nil, err
			}
			mods = append(mods, reconcile.Modification{
				Type:    reconcile.ChangeAdd,
				NewPath: change.To.Name,
				Content: content,
			})
		case change.To.Name == "":
			mods = append(mods, reconcile.Modification{
				Type:         reconcile.ChangeDelete,
				PreviousPath: change.From.Name,
			})
		case change.From.Name != change.To.Name:
			content, err := fileContent(commitTree, change.To.Name)
			if err != nil {
				return nil, err
			}
			mods = append(mods, reconcile.Modification{
				Type:         reconcile.ChangeRename,
				PreviousPath: change.From.Name,
				NewPath:      change.To.Name,
				Content:      content,
			})
		case change.From.TreeEntry.Hash == change.To.TreeEntry.Hash:
			// mode-only change, nothing to publish
		default:
			content, err := fileContent(commitTree, change.To.Name)
			if err != nil {
				return nil, err
			}
			mods = append(mods, reconcile.Modification{
				Type:    reconcile.ChangeModify,
				NewPath: change.To.Name,
				Content: content,
			})
		}
	}
	return mods, nil
}

// BatchesAfter builds one batch per commit, including commits whose
// scoped modification list is empty so the cursor still advances past
// them.
func (s *Source) BatchesAfter(ctx context.Context, branch, since, contentDir string) ([]reconcile.Batch, error) {
	commits, err := s.CommitsAfter(branch, since)
	if err != nil {
		return nil, err
	}
	batches := make([]reconcile.Batch, 0, len(commits))
	for _, commit := range commits {
		mods, err := s.Changes(ctx, commit)
		if err != nil {
			return nil, fmt.Errorf("changes for %s: %w", commit.Hash, err)
		}
		batches = append(batches, reconcile.Batch{
			ID:   commit.Hash.String(),
			Mods: ScopeToDir(mods, contentDir),
		})
	}
	return batches, nil
}

func (s *Source) resolveCommit(revision string) (*object.Commit, error) {
	hash, err := s.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", revision, err)
	}
	return s.repo.CommitObject(*hash)
}

func fileContent(tree *object.Tree, path string) ([]byte, error) {
	file, err := tree.File(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []byte(contents), nil
}
