package exec

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapql/pkg/sqlast"
)

// EntityRecord is an entity read from a result row.
type EntityRecord struct {
	Entity string
	ID     any
	// Attributes maps attribute names to values. Embedded attributes are
	// nested maps; entity valued attributes hold the foreign key.
	Attributes map[string]any
	// Fetches maps fetched association names to a *EntityRecord, or to a
	// []*EntityRecord for collections.
	Fetches map[string]any
}

// entity reads r from row. A null identifier, as produced by an outer
// join without match, yields nil.
func entity(r *sqlast.EntityReturn, row []any) *EntityRecord {
	id := column(r.IDPositions, row)
	if id == nil {
		return nil
	}
	rec := &EntityRecord{Entity: r.Entity, ID: id, Attributes: make(map[string]any, len(r.Attributes))}
	for _, a := range r.Attributes {
		setPath(rec.Attributes, a.Name, column(a.Positions, row))
	}
	for _, f := range r.Fetches {
		if rec.Fetches == nil {
			rec.Fetches = make(map[string]any, len(r.Fetches))
		}
		child := entity(f.Entity, row)
		if !f.Collection {
			rec.Fetches[f.Attribute] = child
			continue
		}
		items := []*EntityRecord{}
		if child != nil {
			items = append(items, child)
		}
		rec.Fetches[f.Attribute] = items
	}
	return rec
}

// setPath stores v under a dotted name, creating nested maps.
func setPath(m map[string]any, name string, v any) {
	parts := strings.Split(name, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

func hasCollectionFetch(returns []sqlast.Return) bool {
	var walk func(r *sqlast.EntityReturn) bool
	walk = func(r *sqlast.EntityReturn) bool {
		for _, f := range r.Fetches {
			if f.Collection || walk(f.Entity) {
				return true
			}
		}
		return false
	}
	for _, r := range returns {
		if e, ok := r.(*sqlast.EntityReturn); ok && walk(e) {
			return true
		}
	}
	return false
}

// rowKey identifies a result by its non-entity values and the identifiers
// of its entities, ignoring fetched collections.
func rowKey(returns []sqlast.Return, values []any) string {
	var b strings.Builder
	for i, v := range values {
		if rec, ok := v.(*EntityRecord); ok {
			fmt.Fprintf(&b, "%s#%v|", returns[i].(*sqlast.EntityReturn).Entity, rec.ID)
			continue
		}
		fmt.Fprintf(&b, "%#v|", v)
	}
	return b.String()
}

// mergeRow folds the fetched collections of values into the result built
// from an earlier row with the same key.
func mergeRow(existing any, values []any) {
	if len(values) == 1 {
		mergeRecord(existing, values[0])
		return
	}
	prev := existing.([]any)
	for i, v := range values {
		mergeRecord(prev[i], v)
	}
}

func mergeRecord(into, from any) {
	dst, ok := into.(*EntityRecord)
	if !ok || dst == nil {
		return
	}
	src, ok := from.(*EntityRecord)
	if !ok || src == nil {
		return
	}
	for name, f := range src.Fetches {
		switch v := f.(type) {
		case []*EntityRecord:
			items, _ := dst.Fetches[name].([]*EntityRecord)
			for _, item := range v {
				if existing := findRecord(items, item.ID); existing != nil {
					mergeRecord(existing, item)
					continue
				}
				items = append(items, item)
			}
			dst.Fetches[name] = items
		case *EntityRecord:
			mergeRecord(dst.Fetches[name], v)
		}
	}
}

func findRecord(items []*EntityRecord, id any) *EntityRecord {
	key := fmt.Sprintf("%v", id)
	for _, item := range items {
		if fmt.Sprintf("%v", item.ID) == key {
			return item
		}
	}
	return nil
}
