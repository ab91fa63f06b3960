package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/pagebridge/pagebridge/internal/reconcile"
)

type repoFixture struct {
	t        *testing.T
	dir      string
	repo     *git.Repository
	worktree *git.Worktree
	now      time.Time
}

func newRepoFixture(t *testing.T) *repoFixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repository failed: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree failed: %v", err)
	}
	return &repoFixture{
		t:        t,
		dir:      dir,
		repo:     repo,
		worktree: worktree,
		now:      time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (f *repoFixture) write(relPath, content string) {
	f.t.Helper()
	full := filepath.Join(f.dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		f.t.Fatalf("mkdir for %s failed: %v", relPath, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		f.t.Fatalf("write %s failed: %v", relPath, err)
	}
	if _, err := f.worktree.Add(relPath); err != nil {
		f.t.Fatalf("add %s failed: %v", relPath, err)
	}
}

func (f *repoFixture) remove(relPath string) {
	f.t.Helper()
	if _, err := f.worktree.Remove(relPath); err != nil {
		f.t.Fatalf("remove %s failed: %v", relPath, err)
	}
}

func (f *repoFixture) commit(message string) string {
	f.t.Helper()
	f.now = f.now.Add(time.Minute)
	hash, err := f.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: "Docs Bot", Email: "docs@example.com", When: f.now},
	})
	if err != nil {
		f.t.Fatalf("commit failed: %v", err)
	}
	return hash.String()
}

func (f *repoFixture) source() *Source {
	f.t.Helper()
	source, err := Open(f.dir)
	if err != nil {
		f.t.Fatalf("open failed: %v", err)
	}
	return source
}

func commitIDs(commits []*object.Commit) []string {
	ids := make([]string, 0, len(commits))
	for _, commit := range commits {
		ids = append(ids, commit.Hash.String())
	}
	return ids
}

func findMod(t *testing.T, mods []reconcile.Modification, changeType reconcile.ChangeType, path string) reconcile.Modification {
	t.Helper()
	for _, mod := range mods {
		if mod.Type == changeType && mod.Path() == path {
			return mod
		}
	}
	t.Fatalf("no %s modification for %s in %+v", changeType, path, mods)
	return reconcile.Modification{}
}

func TestOpenDetectsRepositoryFromSubdirectory(t *testing.T) {
	f := newRepoFixture(t)
	f.write("docs/Guide.md", "# Guide\n")
	f.commit("seed")

	source, err := Open(filepath.Join(f.dir, "docs"))
	if err != nil {
		t.Fatalf("open from subdirectory failed: %v", err)
	}
	root, err := source.Root()
	if err != nil {
		t.Fatalf("root failed: %v", err)
	}
	if root != f.dir {
		t.Fatalf("expected root %s, got %s", f.dir, root)
	}
}

func TestOpenFailsOutsideRepository(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatalf("expected open to fail outside a repository")
	}
}

func TestCommitsAfterReturnsRangeOldestFirst(t *testing.T) {
	f := newRepoFixture(t)
	f.write("a.md", "one\n")
	c1 := f.commit("c1")
	f.write("a.md", "two\n")
	c2 := f.commit("c2")
	f.write("a.md", "three\n")
	c3 := f.commit("c3")

	source := f.source()
	commits, err := source.CommitsAfter("master", c1)
	if err != nil {
		t.Fatalf("commits after failed: %v", err)
	}
	got := commitIDs(commits)
	if len(got) != 2 || got[0] != c2 || got[1] != c3 {
		t.Fatalf("expected [%s %s], got %v", c2, c3, got)
	}
}

func TestCommitsAfterTipReturnsNothing(t *testing.T) {
	f := newRepoFixture(t)
	f.write("a.md", "one\n")
	f.commit("c1")
	f.write("a.md", "two\n")
	c2 := f.commit("c2")

	source := f.source()
	commits, err := source.CommitsAfter("master", c2)
	if err != nil {
		t.Fatalf("commits after failed: %v", err)
	}
	if len(commits) != 0 {
		t.Fatalf("expected no commits, got %v", commitIDs(commits))
	}
}

func TestCommitsAfterEmptySinceWalksFullHistory(t *testing.T) {
	f := newRepoFixture(t)
	f.write("a.md", "one\n")
	c1 := f.commit("c1")
	f.write("a.md", "two\n")
	c2 := f.commit("c2")

	source := f.source()
	commits, err := source.CommitsAfter("master", "")
	if err != nil {
		t.Fatalf("commits after failed: %v", err)
	}
	got := commitIDs(commits)
	if len(got) != 2 || got[0] != c1 || got[1] != c2 {
		t.Fatalf("expected the full history oldest first, got %v", got)
	}
}

func TestCommitsAfterRejectsSinceOffHistory(t *testing.T) {
	f := newRepoFixture(t)
	f.write("a.md", "one\n")
	f.commit("c1")
	if err := f.worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("side"),
		Create: true,
	}); err != nil {
		t.Fatalf("checkout side failed: %v", err)
	}
	f.write("side.md", "side\n")
	sideCommit := f.commit("side")
	if err := f.worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
	}); err != nil {
		t.Fatalf("checkout master failed: %v", err)
	}
	f.write("a.md", "two\n")
	f.commit("c2")

	source := f.source()
	_, err := source.CommitsAfter("master", sideCommit)
	if err == nil || !strings.Contains(err.Error(), "first-parent history") {
		t.Fatalf("expected an off-history error, got %v", err)
	}
}

func TestChangesClassifiesRootCommitAsAdds(t *testing.T) {
	f := newRepoFixture(t)
	f.write("docs/A.md", "# A\n")
	f.write("docs/B.md", "# B\n")
	c1 := f.commit("c1")

	source := f.source()
	commit, err := source.resolveCommit(c1)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	mods, err := source.Changes(context.Background(), commit)
	if err != nil {
		t.Fatalf("changes failed: %v", err)
	}
	if len(mods) != 2 {
		t.Fatalf("expected 2 adds, got %+v", mods)
	}
	added := findMod(t, mods, reconcile.ChangeAdd, "docs/A.md")
	if string(added.Content) != "# A\n" {
		t.Fatalf("expected the committed content, got %q", string(added.Content))
	}
	findMod(t, mods, reconcile.ChangeAdd, "docs/B.md")
}

func TestChangesClassifiesModifyDeleteAdd(t *testing.T) {
	f := newRepoFixture(t)
	f.write("docs/A.md", "# A\n")
	f.write("docs/B.md", "# B\n")
	f.commit("c1")
	f.write("docs/A.md", "# A v2\n")
	f.remove("docs/B.md")
	f.write("docs/C.md", "# C\n")
	c2 := f.commit("c2")

	source := f.source()
	commit, err := source.resolveCommit(c2)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	mods, err := source.Changes(context.Background(), commit)
	if err != nil {
		t.Fatalf("changes failed: %v", err)
	}
	if len(mods) != 3 {
		t.Fatalf("expected 3 modifications, got %+v", mods)
	}
	modified := findMod(t, mods, reconcile.ChangeModify, "docs/A.md")
	if string(modified.Content) != "# A v2\n" {
		t.Fatalf("expected the new content, got %q", string(modified.Content))
	}
	deleted := findMod(t, mods, reconcile.ChangeDelete, "docs/B.md")
	if deleted.Content != nil {
		t.Fatalf("expected no content on a delete")
	}
	findMod(t, mods, reconcile.ChangeAdd, "docs/C.md")
}

func TestChangesDetectsRenames(t *testing.T) {
	f := newRepoFixture(t)
	f.write("docs/C.md", "# C\nsome body text\n")
	f.commit("c1")
	f.remove("docs/C.md")
	f.write("docs/D.md", "# C\nsome body text\n")
	c2 := f.commit("c2")

	source := f.source()
	commit, err := source.resolveCommit(c2)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	mods, err := source.Changes(context.Background(), commit)
	if err != nil {
		t.Fatalf("changes failed: %v", err)
	}
	if len(mods) != 1 {
		t.Fatalf("expected a single rename, got %+v", mods)
	}
	if mods[0].Type != reconcile.ChangeRename {
		t.Fatalf("expected a rename, got %s", mods[0].Type)
	}
	if mods[0].PreviousPath != "docs/C.md" || mods[0].NewPath != "docs/D.md" {
		t.Fatalf("unexpected rename paths %+v", mods[0])
	}
	if string(mods[0].Content) != "# C\nsome body text\n" {
		t.Fatalf("expected the renamed content, got %q", string(mods[0].Content))
	}
}

func TestBatchesAfterScopesAndKeepsEmptyBatches(t *testing.T) {
	f := newRepoFixture(t)
	f.write("docs/Guide.md", "# Guide\n")
	f.write("README.md", "# Readme\n")
	c1 := f.commit("c1")
	f.write("notes.txt", "not docs\n")
	c2 := f.commit("c2")
	f.write("docs/Guide.md", "# Guide v2\n")
	c3 := f.commit("c3")

	source := f.source()
	batches, err := source.BatchesAfter(context.Background(), "master", "", "docs")
	if err != nil {
		t.Fatalf("batches after failed: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if batches[0].ID != c1 || batches[1].ID != c2 || batches[2].ID != c3 {
		t.Fatalf("unexpected batch ids %v", []string{batches[0].ID, batches[1].ID, batches[2].ID})
	}
	if len(batches[0].Mods) != 1 || batches[0].Mods[0].NewPath != "Guide.md" {
		t.Fatalf("expected the scoped add with a relative path, got %+v", batches[0].Mods)
	}
	if len(batches[1].Mods) != 0 {
		t.Fatalf("expected an empty batch for the out-of-scope commit, got %+v", batches[1].Mods)
	}
	if len(batches[2].Mods) != 1 || batches[2].Mods[0].Type != reconcile.ChangeModify {
		t.Fatalf("expected the scoped modify, got %+v", batches[2].Mods)
	}
}
