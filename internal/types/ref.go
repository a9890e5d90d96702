// ref.go
//
// Campus building geometry service: spatial storage, graph resolution and map ring queries
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of campusgeo.
// campusgeo is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// campusgeo is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with campusgeo.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"errors"
)

var (
	// ErrAmbiguousRef is returned when a reference carries both an id and inline data
	ErrAmbiguousRef = errors.New("reference sets both an id and inline data")
	// ErrMissingRef is returned when a required reference carries neither
	ErrMissingRef = errors.New("reference needs an id or inline data")
	// ErrZeroRefID is returned for an id reference of 0
	ErrZeroRefID = errors.New("reference id must be positive")
)

// Ref points at a stored row by id or carries inline data to create one.
// Exactly one side is set on a non-empty Ref.
type Ref[T any] struct {
	id     uint64
	inline *T
}

// ByID references an existing row
func ByID[T any](id uint64) Ref[T] {
	return Ref[T]{id: id}
}

// Inline carries data for a new row
func Inline[T any](v *T) Ref[T] {
	return Ref[T]{inline: v}
}

// NewRef builds a required reference from the two optional payload fields
func NewRef[T any](id *FlexID, inline *T) (Ref[T], error) {
	switch {
	case id != nil && inline != nil:
		return Ref[T]{}, ErrAmbiguousRef
	case id != nil && id.Uint64() == 0:
		return Ref[T]{}, ErrZeroRefID
	case id != nil:
		return ByID[T](id.Uint64()), nil
	case inline != nil:
		return Inline(inline), nil
	}
	return Ref[T]{}, ErrMissingRef
}

// NewOptionalRef is NewRef for references that may be absent
func NewOptionalRef[T any](id *FlexID, inline *T) (Ref[T], error) {
	if id == nil && inline == nil {
		return Ref[T]{}, nil
	}
	return NewRef(id, inline)
}

// ID returns the referenced id, if this is a by-id reference
func (r Ref[T]) ID() (uint64, bool) {
	return r.id, r.id != 0
}

// Inline returns the inline data, if this is an inline reference
func (r Ref[T]) Inline() (*T, bool) {
	return r.inline, r.inline != nil
}

// IsZero reports an absent optional reference
func (r Ref[T]) IsZero() bool {
	return r.id == 0 && r.inline == nil
}
