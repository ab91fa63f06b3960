package reconcile

import (
	"slices"
	"testing"
)

func TestModificationPathPrefersNewPath(t *testing.T) {
	mod := Modification{PreviousPath: "Old.md", NewPath: "New.md"}
	if mod.Path() != "New.md" {
		t.Fatalf("expected the new path, got %q", mod.Path())
	}
	mod = Modification{PreviousPath: "Old.md"}
	if mod.Path() != "Old.md" {
		t.Fatalf("expected the previous path, got %q", mod.Path())
	}
}

func TestPageTitleStripsDirectoryAndExtension(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"Setup.md", "Setup"},
		{"Guides/Install/Setup.md", "Setup"},
		{"Guides/No Extension", "No Extension"},
		{"Release Notes.md", "Release Notes"},
	}
	for _, tc := range cases {
		if got := pageTitle(tc.path); got != tc.want {
			t.Fatalf("pageTitle(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestAncestorTitlesSplitsDirectories(t *testing.T) {
	if got := ancestorTitles("Setup.md"); got != nil {
		t.Fatalf("expected no ancestors at the root, got %v", got)
	}
	got := ancestorTitles("Guides/Install/Setup.md")
	if !slices.Equal(got, []string{"Guides", "Install"}) {
		t.Fatalf("expected [Guides Install], got %v", got)
	}
}
