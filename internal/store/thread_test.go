package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThread(t *testing.T) {
	s := newTestStore(
		post("c", "b", ""),
		post("b", "a", ""),
		post("x", "", "a"),
		post("a", "", ""),
	)

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Thread("a")))
	assert.Equal(t, []string{"c"}, ids(s.Thread("c")))
	assert.Empty(t, s.Thread("missing"))
}

func TestThreadSkipsMissingRootButKeepsOrphans(t *testing.T) {
	// The root was deleted; its replies still hang off its id
	s := newTestStore(post("b", "gone", ""), post("c", "b", ""))

	assert.Equal(t, []string{"b", "c"}, ids(s.Thread("gone")))
}

func TestAncestors(t *testing.T) {
	s := newTestStore(
		post("d", "c", ""),
		post("c", "b", ""),
		post("b", "a", ""),
		post("a", "", ""),
		post("orphan", "deleted", ""),
	)

	tests := []struct {
		name     string
		id       string
		expected []string
	}{
		{"deep reply", "d", []string{"a", "b", "c", "d"}},
		{"root", "a", []string{"a"}},
		{"dangling parent", "orphan", []string{"orphan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(s.Ancestors(tt.id)))
		})
	}

	assert.Nil(t, s.Ancestors("missing"))
}

func TestAncestorsCycle(t *testing.T) {
	s := newTestStore(post("a", "b", ""), post("b", "a", ""))

	assert.Equal(t, []string{"b", "a"}, ids(s.Ancestors("a")))
}
