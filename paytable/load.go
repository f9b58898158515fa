package paytable

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML payout table and checks it.
//
//	id: 10
//	name: top two
//	rows:
//	  - min_players: 3
//	    max_players: 3
//	    percentages: [200, 100, 0]
func Load(r io.Reader) (*Paytable, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	pt := &Paytable{}
	if err := dec.Decode(pt); err != nil {
		return nil, fmt.Errorf("decode paytable: %w", err)
	}
	if pt.Name == "" {
		return nil, fmt.Errorf("paytable %d has no name", pt.ID)
	}
	if err := pt.Check(); err != nil {
		return nil, err
	}
	return pt, nil
}

func LoadFile(path string) (*Paytable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pt, err := Load(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pt, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, sorted by file name.  A
// missing directory yields no tables.
func LoadDir(dir string) ([]*Paytable, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	tables := make([]*Paytable, 0, len(names))
	for _, name := range names {
		pt, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		tables = append(tables, pt)
	}
	return tables, nil
}
