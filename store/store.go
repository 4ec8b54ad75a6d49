package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/sasha-s/go-deadlock"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("key not found")
	// ErrTypeMismatch is returned when a stored value cannot be retrieved
	// as the requested type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// MergeStrategy defines how key collisions are handled when merging stores.
type MergeStrategy int

const (
	// Overwrite replaces colliding keys with the incoming value.
	Overwrite MergeStrategy = iota
	// Skip keeps the existing value on collision.
	Skip
	// Fail aborts the merge on the first collision.
	Fail
)

type entry struct {
	typ      reflect.Type
	typeKind reflect.Kind
	value    any
}

// KVStore is a threadsafe, type-aware in-memory record.
type KVStore struct {
	mu   deadlock.RWMutex
	data map[string]entry
}

// NewKVStore constructs an empty store.
func NewKVStore() *KVStore {
	return &KVStore{data: make(map[string]entry)}
}

// FromMap builds a store from a plain map. Useful for seeding initial
// series data in callers and tests.
func FromMap(values map[string]any) *KVStore {
	s := NewKVStore()
	for k, v := range values {
		_ = s.Put(k, v)
	}
	return s
}

// Put stores any Go value under key, capturing its concrete type.
func (s *KVStore) Put(key string, value any) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}

	if value == nil {
		s.mu.Lock()
		s.data[key] = entry{typ: nil, typeKind: reflect.Invalid, value: nil}
		s.mu.Unlock()
		return nil
	}

	t := reflect.TypeOf(value)
	s.mu.Lock()
	s.data[key] = entry{typ: t, typeKind: t.Kind(), value: value}
	s.mu.Unlock()
	return nil
}

// Get retrieves a value of type T for the given key.
func Get[T any](s *KVStore, key string) (T, error) {
	var zero T
	if key == "" {
		return zero, errors.New("key cannot be empty")
	}

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return zero, ErrNotFound
	}

	want := reflect.TypeOf((*T)(nil)).Elem()

	// Interfaces accept any stored value implementing them.
	if want.Kind() == reflect.Interface {
		if e.typ == nil || !e.typ.Implements(want) {
			return zero, fmt.Errorf("%w: wanted interface %v, got %v", ErrTypeMismatch, want, e.typ)
		}
		result, ok := e.value.(T)
		if !ok {
			return zero, fmt.Errorf("%w: %T cannot be converted to %v", ErrTypeMismatch, e.value, want)
		}
		return result, nil
	}

	if e.typ != want {
		return zero, fmt.Errorf("%w: wanted %v, got %v", ErrTypeMismatch, want, e.typ)
	}

	result, ok := e.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T cannot be converted to %v", ErrTypeMismatch, e.value, want)
	}
	return result, nil
}

// GetOrDefault retrieves a value of type T, falling back to defaultValue
// when the key is absent.
func GetOrDefault[T any](s *KVStore, key string, defaultValue T) (T, error) {
	value, err := Get[T](s, key)
	if errors.Is(err, ErrNotFound) {
		return defaultValue, nil
	}
	return value, err
}

// Has reports whether the key exists.
func (s *KVStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Delete removes a key from the store.
func (s *KVStore) Delete(key string) bool {
	if key == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		delete(s.data, key)
		return true
	}
	return false
}

// Clear removes all keys from the store.
func (s *KVStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]entry)
}

// Keys returns all stored keys.
func (s *KVStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

// Count returns the number of entries in the store.
func (s *KVStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Merge copies every entry of other into this store, deep-copying values and
// handling collisions according to the strategy. It returns the keys that
// collided.
func (s *KVStore) Merge(other *KVStore, strategy MergeStrategy) ([]string, error) {
	if other == nil {
		return nil, fmt.Errorf("source store is nil")
	}

	other.mu.RLock()
	defer other.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	var collisions []string
	for key, otherEntry := range other.data {
		if _, exists := s.data[key]; exists {
			collisions = append(collisions, key)
			switch strategy {
			case Fail:
				return collisions, fmt.Errorf("key collision on merge: %s", key)
			case Skip:
				continue
			case Overwrite:
				// Fall through to overwrite.
			}
		}

		s.data[key] = entry{
			typ:      otherEntry.typ,
			typeKind: otherEntry.typeKind,
			value:    deepCopy(otherEntry.value),
		}
	}
	return collisions, nil
}

// Clone creates a new KVStore with deep copies of all entries.
// The returned store shares no references with the original.
func (s *KVStore) Clone() *KVStore {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := NewKVStore()
	for key, e := range s.data {
		out.data[key] = entry{typ: e.typ, typeKind: e.typeKind, value: deepCopy(e.value)}
	}
	return out
}

// ToMap returns a shallow snapshot of the store as a plain map.
func (s *KVStore) ToMap() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.data))
	for k, e := range s.data {
		out[k] = e.value
	}
	return out
}

// GetTypeSchema returns a JSON Schema representation of the stored value's type.
func (s *KVStore) GetTypeSchema(key string) (any, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}

	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if e.typ == nil {
		return map[string]any{"type": "null"}, nil
	}
	return TypeToSchema(e.typ), nil
}

// TypeToSchema converts a reflect.Type to a JSON schema map.
func TypeToSchema(t reflect.Type) any {
	instance := reflect.New(t).Interface()
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(instance)

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}
	}

	if _, exists := schemaMap["type"]; !exists {
		schemaMap["type"] = "object"
	}
	if _, exists := schemaMap["properties"]; !exists {
		schemaMap["properties"] = map[string]any{}
	}
	return schemaMap
}

// deepCopy creates a proper deep copy of a value.
func deepCopy(value any) any {
	if value == nil {
		return nil
	}

	valueType := reflect.TypeOf(value)
	switch valueType.Kind() {
	case reflect.Ptr:
		newInstance := reflect.New(valueType.Elem())
		elemCopy := deepCopy(reflect.ValueOf(value).Elem().Interface())
		newInstance.Elem().Set(reflect.ValueOf(elemCopy))
		return newInstance.Interface()
	case reflect.Struct:
		newStruct := reflect.New(valueType).Elem()
		original := reflect.ValueOf(value)
		for i := 0; i < valueType.NumField(); i++ {
			field := original.Field(i)
			if field.CanInterface() && newStruct.Field(i).CanSet() {
				newStruct.Field(i).Set(reflect.ValueOf(deepCopy(field.Interface())))
			}
		}
		return newStruct.Interface()
	case reflect.Map:
		original := reflect.ValueOf(value)
		newMap := reflect.MakeMap(valueType)
		iter := original.MapRange()
		for iter.Next() {
			newMap.SetMapIndex(iter.Key(), reflect.ValueOf(deepCopy(iter.Value().Interface())))
		}
		return newMap.Interface()
	case reflect.Slice:
		original := reflect.ValueOf(value)
		newSlice := reflect.MakeSlice(valueType, original.Len(), original.Cap())
		for i := 0; i < original.Len(); i++ {
			newSlice.Index(i).Set(reflect.ValueOf(deepCopy(original.Index(i).Interface())))
		}
		return newSlice.Interface()
	case reflect.Array:
		original := reflect.ValueOf(value)
		newArray := reflect.New(valueType).Elem()
		for i := 0; i < original.Len(); i++ {
			newArray.Index(i).Set(reflect.ValueOf(deepCopy(original.Index(i).Interface())))
		}
		return newArray.Interface()
	default:
		return value
	}
}
