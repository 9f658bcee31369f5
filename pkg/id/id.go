// Package id issues run identifiers. Run IDs are ULIDs, so lexical order
// follows creation time and SQLite keeps them clustered.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic keeps IDs from the same millisecond increasing.
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// NewRunID returns a run ID stamped with now.
func NewRunID() string {
	return NewRunIDAt(time.Now())
}

// NewRunIDAt returns a run ID stamped with t.
func NewRunIDAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		panic(err)
	}
	return id.String()
}

// Created parses a run ID and returns the time it was issued.
// Lower case IDs, as typed on a command line, are accepted.
func Created(runID string) (time.Time, error) {
	u, err := ulid.ParseStrict(strings.ToUpper(runID))
	if err != nil {
		return time.Time{}, fmt.Errorf("run id %q: %w", runID, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}

// Short is the first ten characters of a run ID, the timestamp part.
// It is used in file names.
func Short(runID string) string {
	if len(runID) <= 10 {
		return runID
	}
	return runID[:10]
}
