package doc

import (
	"fmt"

	"go.uber.org/multierr"
)

// Identified deserializes a list of document items onto an existing
// collection by matching identifiers:
//
//   - an item whose identifier matches an existing value is read into it,
//   - an item without a match is created only if AllowNew accepts its identifier,
//   - existing values without an item are passed to OnRemove.
//
// Items lacking an identifier attribute are skipped.
type Identified[T any] struct {
	ListTag string
	ItemTag string

	ID       func(v T) string
	AllowNew func(id string) bool
	// OnNew creates a value for an unmatched item.
	OnNew func(id string, item *Deserializer) error
	// OnExisting reads an item into a matching value. Optional.
	OnExisting func(v T, item *Deserializer) error
	// OnRemove is called for existing values missing from the document. Optional.
	OnRemove func(v T) error
}

// Deserialize applies the items below d to existing. Items repeating an
// identifier are skipped with an ignorable ErrDuplicateItem.
func (i Identified[T]) Deserialize(d *Deserializer, existing []T) error {
	byID := make(map[string]T, len(existing))
	for _, v := range existing {
		byID[i.ID(v)] = v
	}

	var errs error
	seen := make(map[string]struct{}, len(existing))
	for _, item := range d.List(i.ListTag, i.ItemTag) {
		id, ok := item.Attr(AttrIdentifier)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			errs = multierr.Append(errs, Ignore(item.Path(), fmt.Errorf("%w: %s", ErrDuplicateItem, id)))
			continue
		}
		seen[id] = struct{}{}

		if v, ok := byID[id]; ok {
			if i.OnExisting != nil {
				errs = multierr.Append(errs, i.OnExisting(v, item))
			}
			continue
		}
		if i.AllowNew != nil && i.AllowNew(id) && i.OnNew != nil {
			errs = multierr.Append(errs, i.OnNew(id, item))
		}
	}

	if i.OnRemove != nil {
		for _, v := range existing {
			if _, ok := seen[i.ID(v)]; ok {
				continue
			}
			errs = multierr.Append(errs, i.OnRemove(v))
		}
	}
	return errs
}
