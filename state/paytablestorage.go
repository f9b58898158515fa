package state

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/ts4z/deuces/builtins"
	"github.com/ts4z/deuces/he"
	"github.com/ts4z/deuces/paytable"
)

// DefaultPaytableStorage serves the built-in paytables plus any loaded from
// YAML files.  It's read-only after construction.
type DefaultPaytableStorage struct {
	paytables map[int64]*paytable.Paytable
}

var _ PaytableStorage = (*DefaultPaytableStorage)(nil)

// NewDefaultPaytableStorage loads the built-ins and every table in dir.  An
// empty dir means built-ins only.  Loaded tables may not reuse an ID.
func NewDefaultPaytableStorage(dir string) (*DefaultPaytableStorage, error) {
	d := &DefaultPaytableStorage{
		paytables: map[int64]*paytable.Paytable{},
	}
	for _, pt := range builtins.Paytables() {
		d.paytables[pt.ID] = pt
	}
	if dir == "" {
		return d, nil
	}

	loaded, err := paytable.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, pt := range loaded {
		if pt.ID <= 0 {
			return nil, fmt.Errorf("paytable %q in %s needs a positive id", pt.Name, dir)
		}
		if existing, ok := d.paytables[pt.ID]; ok {
			return nil, fmt.Errorf("paytable %q in %s reuses id %d of %q", pt.Name, dir, pt.ID, existing.Name)
		}
		d.paytables[pt.ID] = pt
	}
	log.Printf("loaded %d paytables from %s", len(loaded), dir)
	return d, nil
}

func (d *DefaultPaytableStorage) Close() {
	// No resources to clean up
}

// FetchPaytableByID returns a copy, so callers may scribble on it.
func (d *DefaultPaytableStorage) FetchPaytableByID(_ context.Context, id int64) (*paytable.Paytable, error) {
	if pt, ok := d.paytables[id]; ok {
		return pt.Clone(), nil
	} else {
		return nil, he.HTTPCodedErrorf(404, "paytable %d not found", id)
	}
}

func (d *DefaultPaytableStorage) FetchPaytableSlugs(_ context.Context) ([]*paytable.PaytableSlug, error) {
	slugs := make([]*paytable.PaytableSlug, 0, len(d.paytables))
	for _, pt := range d.paytables {
		slugs = append(slugs, pt.Slug())
	}
	sort.Slice(slugs, func(i, j int) bool { return slugs[i].ID < slugs[j].ID })
	return slugs, nil
}
