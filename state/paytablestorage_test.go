package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ts4z/deuces/builtins"
	"github.com/ts4z/deuces/he"
)

const topTwo = `id: 10
name: top two
rows:
  - min_players: 3
    max_players: 3
    percentages: [200, 100, 0]
`

func TestDefaultPaytableStorageBuiltins(t *testing.T) {
	ctx := context.Background()
	d, err := NewDefaultPaytableStorage("")
	if err != nil {
		t.Fatal(err)
	}
	pt, err := d.FetchPaytableByID(ctx, builtins.StandardPaytableID)
	if err != nil {
		t.Fatalf("FetchPaytableByID: %v", err)
	}
	pt.Rows[0].Percentages[0] = 9999
	again, _ := d.FetchPaytableByID(ctx, builtins.StandardPaytableID)
	if again.Rows[0].Percentages[0] == 9999 {
		t.Errorf("storage handed out its own copy")
	}

	if _, err := d.FetchPaytableByID(ctx, 404); he.CodeOf(err) != 404 {
		t.Errorf("got %v, want 404", err)
	}

	slugs, err := d.FetchPaytableSlugs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(slugs) != len(builtins.Paytables()) || slugs[0].ID != builtins.StandardPaytableID {
		t.Errorf("got slugs %+v", slugs)
	}
}

func TestDefaultPaytableStorageLoadsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "top-two.yaml"), []byte(topTwo), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := NewDefaultPaytableStorage(dir)
	if err != nil {
		t.Fatalf("NewDefaultPaytableStorage: %v", err)
	}
	pt, err := d.FetchPaytableByID(context.Background(), 10)
	if err != nil || pt.Name != "top two" {
		t.Errorf("got %+v, %v", pt, err)
	}
	slugs, _ := d.FetchPaytableSlugs(context.Background())
	if last := slugs[len(slugs)-1]; last.ID != 10 {
		t.Errorf("slugs not sorted by id: %+v", slugs)
	}
}

func TestDefaultPaytableStorageRejectsDuplicateID(t *testing.T) {
	dir := t.TempDir()
	dup := "id: 1\nname: clash\nrows:\n  - min_players: 2\n    max_players: 2\n    percentages: [200, 0]\n"
	if err := os.WriteFile(filepath.Join(dir, "clash.yaml"), []byte(dup), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDefaultPaytableStorage(dir); err == nil {
		t.Errorf("loaded a table that reuses a built-in id")
	}
}
