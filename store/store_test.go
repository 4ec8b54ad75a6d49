package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string
	Score int
	Tags  []string
}

func TestPutAndGet(t *testing.T) {
	s := NewKVStore()

	require.NoError(t, s.Put("name", "arthur"))
	require.NoError(t, s.Put("count", 3))

	name, err := Get[string](s, "name")
	require.NoError(t, err)
	assert.Equal(t, "arthur", name)

	count, err := Get[int](s, "count")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetTypeMismatch(t *testing.T) {
	s := NewKVStore()
	require.NoError(t, s.Put("count", 3))

	_, err := Get[string](s, "count")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestGetMissing(t *testing.T) {
	s := NewKVStore()

	_, err := Get[string](s, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	val, err := GetOrDefault(s, "nope", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", val)
}

func TestEmptyKeyRejected(t *testing.T) {
	s := NewKVStore()
	assert.Error(t, s.Put("", "x"))
	assert.False(t, s.Delete(""))
}

func TestDeleteAndClear(t *testing.T) {
	s := FromMap(map[string]any{"a": 1, "b": 2})

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	assert.Equal(t, 1, s.Count())

	s.Clear()
	assert.Equal(t, 0, s.Count())
}

func TestMergeOverwrite(t *testing.T) {
	dst := FromMap(map[string]any{"a": 1, "b": 2})
	src := FromMap(map[string]any{"b": 20, "c": 30})

	collisions, err := dst.Merge(src, Overwrite)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, collisions)

	b, err := Get[int](dst, "b")
	require.NoError(t, err)
	assert.Equal(t, 20, b)

	c, err := Get[int](dst, "c")
	require.NoError(t, err)
	assert.Equal(t, 30, c)
}

func TestMergeSkip(t *testing.T) {
	dst := FromMap(map[string]any{"a": 1})
	src := FromMap(map[string]any{"a": 100, "b": 2})

	_, err := dst.Merge(src, Skip)
	require.NoError(t, err)

	a, err := Get[int](dst, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.True(t, dst.Has("b"))
}

func TestMergeFail(t *testing.T) {
	dst := FromMap(map[string]any{"a": 1})
	src := FromMap(map[string]any{"a": 2})

	_, err := dst.Merge(src, Fail)
	assert.Error(t, err)
}

func TestMergeDeepCopiesValues(t *testing.T) {
	src := NewKVStore()
	require.NoError(t, src.Put("profile", profile{Name: "morgan", Tags: []string{"x"}}))

	dst := NewKVStore()
	_, err := dst.Merge(src, Overwrite)
	require.NoError(t, err)

	original, err := Get[profile](src, "profile")
	require.NoError(t, err)
	original.Tags[0] = "mutated"

	copied, err := Get[profile](dst, "profile")
	require.NoError(t, err)
	assert.Equal(t, "x", copied.Tags[0])
}

func TestCloneIsolation(t *testing.T) {
	s := NewKVStore()
	require.NoError(t, s.Put("tags", []string{"one", "two"}))

	clone := s.Clone()
	require.NoError(t, s.Put("tags", []string{"changed"}))

	tags, err := Get[[]string](clone, "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, tags)
}

func TestInterfaceRetrieval(t *testing.T) {
	s := NewKVStore()
	require.NoError(t, s.Put("err", assert.AnError))

	got, err := Get[error](s, "err")
	require.NoError(t, err)
	assert.Equal(t, assert.AnError, got)
}

func TestGetTypeSchema(t *testing.T) {
	s := NewKVStore()
	require.NoError(t, s.Put("profile", profile{}))

	schema, err := s.GetTypeSchema("profile")
	require.NoError(t, err)

	m, ok := schema.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "properties")
}

func TestToMapSnapshot(t *testing.T) {
	s := FromMap(map[string]any{"a": 1, "b": "two"})

	m := s.ToMap()
	assert.Len(t, m, 2)
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, "two", m["b"])
}
