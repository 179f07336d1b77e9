package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dshills/QuantaPlan/internal/errors"
)

// IndexType represents the access structure backing an index.
type IndexType int

const (
	// BTreeIndex is an ordered index usable for equality and ranges.
	BTreeIndex IndexType = iota
	// HashIndex is a hash index usable for equality only.
	HashIndex
	// GeoIndex is a geospatial index serving geo-nearest predicates.
	GeoIndex
)

func (t IndexType) String() string {
	switch t {
	case BTreeIndex:
		return "BTREE"
	case HashIndex:
		return "HASH"
	case GeoIndex:
		return "GEO"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// IndexEntry describes one index available to the planner. The key
// pattern is the ordered list of field paths forming the composite
// key; Multikey marks indexes where some column stores array values.
type IndexEntry struct {
	Name       string    `json:"name"`
	KeyPattern []string  `json:"key_pattern"`
	Multikey   bool      `json:"multikey"`
	Unique     bool      `json:"unique"`
	Type       IndexType `json:"type"`
}

// IsCompound reports whether the index has more than one key column.
func (e *IndexEntry) IsCompound() bool {
	return len(e.KeyPattern) > 1
}

func (e *IndexEntry) String() string {
	flags := ""
	if e.Multikey {
		flags += " multikey"
	}
	if e.Unique {
		flags += " unique"
	}
	return fmt.Sprintf("%s %s(%s)%s", e.Name, e.Type, strings.Join(e.KeyPattern, ", "), flags)
}

// Catalog is a read-only collection of index entries. An index's id is
// its position in the catalog.
type Catalog struct {
	entries []IndexEntry
}

// NewCatalog creates a catalog from the given entries.
func NewCatalog(entries ...IndexEntry) (*Catalog, error) {
	c := &Catalog{}
	for _, e := range entries {
		if err := c.Add(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add validates and appends an entry. The entry's id is its position
// at the time of the append.
func (c *Catalog) Add(entry IndexEntry) error {
	if len(entry.KeyPattern) == 0 {
		return errors.Newf(errors.InvalidCatalog, "index %q has an empty key pattern", entry.Name)
	}
	for _, field := range entry.KeyPattern {
		if field == "" {
			return errors.Newf(errors.InvalidCatalog, "index %q has an empty key column", entry.Name)
		}
	}
	for _, existing := range c.entries {
		if existing.Name == entry.Name {
			return errors.Newf(errors.InvalidCatalog, "duplicate index name %q", entry.Name)
		}
	}
	c.entries = append(c.entries, entry)
	return nil
}

// Len returns the number of indexes in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entry returns the index entry with the given id.
func (c *Catalog) Entry(id int) *IndexEntry {
	if id < 0 || id >= len(c.entries) {
		panic(errors.InvalidIndexIDError(id, len(c.entries)))
	}
	return &c.entries[id]
}

// IsCompound reports whether index id has more than one key column.
func (c *Catalog) IsCompound(id int) bool {
	return c.Entry(id).IsCompound()
}

// KeyPattern returns the ordered key columns of index id.
func (c *Catalog) KeyPattern(id int) []string {
	return c.Entry(id).KeyPattern
}

// Multikey reports whether index id contains an array-valued column.
func (c *Catalog) Multikey(id int) bool {
	return c.Entry(id).Multikey
}

// Valid reports whether id is a valid index id for this catalog.
func (c *Catalog) Valid(id int) bool {
	return id >= 0 && id < len(c.entries)
}

func (c *Catalog) String() string {
	parts := make([]string, len(c.entries))
	for i := range c.entries {
		parts[i] = fmt.Sprintf("#%d %s", i, c.entries[i].String())
	}
	return strings.Join(parts, "\n")
}

// catalogFile is the on-disk JSON shape for LoadFromJSON.
type catalogFile struct {
	Indexes []jsonIndex `json:"indexes"`
}

type jsonIndex struct {
	Name       string   `json:"name"`
	KeyPattern []string `json:"key_pattern"`
	Multikey   bool     `json:"multikey"`
	Unique     bool     `json:"unique"`
	Type       string   `json:"type"`
}

// LoadFromJSON reads a catalog description from a JSON file.
func LoadFromJSON(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOErrorf("reading catalog file: %v", err)
	}
	return ParseJSON(data)
}

// ParseJSON parses a JSON catalog description.
func ParseJSON(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Newf(errors.InvalidCatalog, "parsing catalog file: %v", err)
	}

	c := &Catalog{}
	for _, idx := range file.Indexes {
		entry := IndexEntry{
			Name:       idx.Name,
			KeyPattern: idx.KeyPattern,
			Multikey:   idx.Multikey,
			Unique:     idx.Unique,
		}
		switch strings.ToUpper(idx.Type) {
		case "", "BTREE":
			entry.Type = BTreeIndex
		case "HASH":
			entry.Type = HashIndex
		case "GEO":
			entry.Type = GeoIndex
		default:
			return nil, errors.Newf(errors.InvalidCatalog, "index %q has unknown type %q", idx.Name, idx.Type)
		}
		if err := c.Add(entry); err != nil {
			return nil, err
		}
	}
	return c, nil
}
