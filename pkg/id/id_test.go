package id

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDSortable(t *testing.T) {
	t.Parallel()

	prev := NewRunID()
	for i := 0; i < 100; i++ {
		next := NewRunID()
		assert.Len(t, next, 26)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestCreatedRoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 14, 30, 0, 123e6, time.UTC)
	rid := NewRunIDAt(at)

	got, err := Created(rid)
	require.NoError(t, err)
	assert.True(t, got.Equal(at))

	got, err = Created(strings.ToLower(rid))
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestCreatedRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Created("not-a-run-id")
	assert.Error(t, err)
}

func TestShort(t *testing.T) {
	t.Parallel()

	rid := NewRunIDAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, rid[:10], Short(rid))
	assert.Equal(t, "abc", Short("abc"))
}
