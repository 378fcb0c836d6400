// ABOUTME: Database schema setup and inspection
// ABOUTME: Adds missing columns idempotently and reports totals for the status command
package notion

import (
	"context"
	"fmt"
	"sort"
)

// EnsureSchema adds every missing column and returns the names it added.
// When the title column has another name it is renamed to First Name.
func (s *Store) EnsureSchema(ctx context.Context) ([]string, error) {
	db, err := s.client.RetrieveDatabase(ctx, s.databaseID)
	if err != nil {
		return nil, asFetchError("retrieve database", err)
	}

	updates := map[string]any{}
	var added []string
	for _, col := range Schema {
		if _, ok := db.Properties[col.Name]; ok {
			continue
		}
		if col.Type == TypeTitle {
			if existing := titleColumn(db); existing != "" {
				updates[existing] = map[string]any{"name": col.Name}
				added = append(added, col.Name)
				continue
			}
		}
		updates[col.Name] = definition(col.Type)
		added = append(added, col.Name)
	}

	if len(updates) == 0 {
		return nil, nil
	}
	if err := s.client.UpdateDatabase(ctx, s.databaseID, updates); err != nil {
		return nil, asWriteError(s.databaseID, "update database", err)
	}
	return added, nil
}

func titleColumn(db *Database) string {
	for name, prop := range db.Properties {
		if prop.Type == TypeTitle {
			return name
		}
	}
	return ""
}

// ColumnReport describes one column of the live database.
type ColumnReport struct {
	Name     string
	Type     string
	Expected string
}

// Mismatch reports whether the column exists with the wrong type.
func (c ColumnReport) Mismatch() bool {
	return c.Expected != "" && c.Type != c.Expected
}

// SchemaReport compares the live database with the expected columns.
type SchemaReport struct {
	Title   string
	Columns []ColumnReport
	Missing []string
	Sample  *Page
}

// DescribeSchema inspects the database and fetches one sample row.
func (s *Store) DescribeSchema(ctx context.Context) (*SchemaReport, error) {
	db, err := s.client.RetrieveDatabase(ctx, s.databaseID)
	if err != nil {
		return nil, asFetchError("retrieve database", err)
	}

	expected := make(map[string]string, len(Schema))
	for _, col := range Schema {
		expected[col.Name] = col.Type
	}

	r := &SchemaReport{Title: plain(db.Title)}
	for name, prop := range db.Properties {
		r.Columns = append(r.Columns, ColumnReport{Name: name, Type: prop.Type, Expected: expected[name]})
	}
	sort.Slice(r.Columns, func(i, j int) bool { return r.Columns[i].Name < r.Columns[j].Name })
	for _, col := range Schema {
		if _, ok := db.Properties[col.Name]; !ok {
			r.Missing = append(r.Missing, col.Name)
		}
	}

	result, err := s.client.QueryDatabase(ctx, s.databaseID, "", 1)
	if err != nil {
		return nil, asFetchError("query database", err)
	}
	if len(result.Results) > 0 {
		r.Sample = &result.Results[0]
	}
	return r, nil
}

// Summary counts rows for the status command.
type Summary struct {
	Total        int
	Linked       int
	Manual       int
	WithBirthday int
	HideBirthday int
}

// Summarize reads every row and tallies it.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	snap, err := s.FetchAll(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read notion database: %w", err)
	}
	var sum Summary
	for _, c := range snap.Contacts {
		sum.Total++
		if c.Linked() {
			sum.Linked++
		} else {
			sum.Manual++
		}
		if c.Birthday != nil {
			sum.WithBirthday++
		}
		if c.Secondary.HideBirthday {
			sum.HideBirthday++
		}
	}
	return sum, nil
}
