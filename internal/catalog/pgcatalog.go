package catalog

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq" // postgres driver

	"github.com/dshills/QuantaPlan/internal/errors"
)

// pgIndexQuery lists the key columns of every index on a table, one
// row per column in key order. Expression columns (indkey 0) are
// excluded; indexes containing them are skipped by the query.
const pgIndexQuery = `
SELECT ic.relname,
       i.indisunique,
       am.amname,
       a.attname,
       t.typcategory = 'A'
FROM pg_index i
JOIN pg_class ic ON ic.oid = i.indexrelid
JOIN pg_class tc ON tc.oid = i.indrelid
JOIN pg_namespace n ON n.oid = tc.relnamespace
JOIN pg_am am ON am.oid = ic.relam
JOIN unnest(i.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
JOIN pg_attribute a ON a.attrelid = tc.oid AND a.attnum = k.attnum
JOIN pg_type t ON t.oid = a.atttypid
WHERE n.nspname = 'public' AND tc.relname = $1 AND a.attnum > 0
  AND NOT (0 = ANY(i.indkey))
ORDER BY ic.relname, k.ord`

// LoadFromPostgres builds a catalog from the indexes of a PostgreSQL
// table, so plans can be explored against a live schema. Array-typed
// key columns mark the index multikey.
func LoadFromPostgres(ctx context.Context, dsn, table string) (*Catalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.IOErrorf("opening postgres connection: %v", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, pgIndexQuery, table)
	if err != nil {
		return nil, errors.IOErrorf("querying indexes for table %q: %v", table, err)
	}
	defer rows.Close()

	c := &Catalog{}
	var cur *IndexEntry
	for rows.Next() {
		var (
			name    string
			unique  bool
			am      string
			column  string
			isArray bool
		)
		if err := rows.Scan(&name, &unique, &am, &column, &isArray); err != nil {
			return nil, errors.IOErrorf("scanning index row: %v", err)
		}
		if cur == nil || cur.Name != name {
			if cur != nil {
				if err := c.Add(*cur); err != nil {
					return nil, err
				}
			}
			cur = &IndexEntry{
				Name:   name,
				Unique: unique,
				Type:   accessMethodType(am),
			}
		}
		cur.KeyPattern = append(cur.KeyPattern, column)
		if isArray {
			cur.Multikey = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IOErrorf("iterating index rows: %v", err)
	}
	if cur != nil {
		if err := c.Add(*cur); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func accessMethodType(am string) IndexType {
	switch am {
	case "hash":
		return HashIndex
	case "gist", "spgist":
		return GeoIndex
	default:
		return BTreeIndex
	}
}
