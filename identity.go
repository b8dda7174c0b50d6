package evtrack

import (
	"fmt"
	"reflect"
)

// ObjectID is the identity assigned to a tracked object.
type ObjectID int64

// String returns the decimal form of the id.
func (id ObjectID) String() string {
	return fmt.Sprintf("%d", int64(id))
}

// refKey keys reference types that are not comparable (maps, slices, funcs).
type refKey struct {
	typ reflect.Type
	ptr uintptr
	len int
}

// ObjectKey returns the map key used to identify target by reference.
//
// Comparable values (pointers, channels, comparable structs) are their own
// key. Maps, slices and funcs are keyed by type and data pointer; slices
// also by length so that distinct sub-slices of one array do not collide.
// Returns false for nil and for values that cannot be keyed.
func ObjectKey(target any) (any, bool) {
	if target == nil {
		return nil, false
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Map, reflect.Func:
		if v.IsNil() {
			return nil, false
		}
		return refKey{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() {
			return nil, false
		}
		return refKey{typ: v.Type(), ptr: v.Pointer(), len: v.Len()}, true
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return nil, false
		}
	}
	if !v.Comparable() {
		return nil, false
	}
	return target, true
}

// identities maps object keys to ids with a monotonic counter.
type identities struct {
	next ObjectID
	ids  map[any]ObjectID
}

func newIdentities() *identities {
	return &identities{ids: make(map[any]ObjectID)}
}

// lookup returns the id for key without assigning one.
func (m *identities) lookup(key any) (ObjectID, bool) {
	id, ok := m.ids[key]
	return id, ok
}

// assign returns the id for key, assigning the next id on first sight.
func (m *identities) assign(key any) ObjectID {
	if id, ok := m.ids[key]; ok {
		return id
	}
	id := m.next
	m.next++
	m.ids[key] = id
	return id
}

// release forgets key. The counter is not rewound.
func (m *identities) release(key any) {
	delete(m.ids, key)
}

// reset forgets all keys and rewinds the counter.
func (m *identities) reset() {
	m.ids = make(map[any]ObjectID)
	m.next = 0
}
