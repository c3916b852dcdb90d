// Package history keeps a bounded, de-duplicated list of past inputs with a
// cursor that can move back and forward. A History is not safe for
// concurrent use.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"catgraph/internal/domain"
)

// DefaultMax is the capacity used when none is given.
const DefaultMax = 100

// History is an ordered list of distinct tokens with a single cursor.
type History struct {
	entries []string
	pos     int
	max     int
	path    string
}

// New returns an empty in-memory history holding at most max entries.
func New(max int) *History {
	if max <= 0 {
		max = DefaultMax
	}
	return &History{pos: -1, max: max}
}

// Load reads the history persisted at path and keeps persisting to it. A
// missing file yields an empty history. The cursor starts at the last entry.
func Load(path string, max int) (*History, error) {
	h := New(max)
	h.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}
	if len(data) == 0 {
		return h, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	idx := make([]int, 0, len(m))
	byIdx := make(map[int]string, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("parse history %s: key %q is not an index", path, k)
		}
		idx = append(idx, i)
		byIdx[i] = v
	}
	sort.Ints(idx)
	for _, i := range idx {
		h.entries = append(h.entries, byIdx[i])
	}
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	h.pos = len(h.entries) - 1
	return h, nil
}

// Append records token as the most recent entry and moves the cursor to it.
// An existing occurrence is moved to the end; otherwise the oldest entry is
// evicted when the history is full. The history is persisted when it has a
// path.
func (h *History) Append(token string) error {
	if i := h.index(token); i >= 0 {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	} else if len(h.entries) >= h.max {
		h.entries = h.entries[1:]
	}
	h.entries = append(h.entries, token)
	h.pos = len(h.entries) - 1
	return h.Save()
}

func (h *History) index(token string) int {
	for i, e := range h.entries {
		if e == token {
			return i
		}
	}
	return -1
}

// Back moves the cursor one entry toward the oldest and returns the entry
// there. At the oldest entry the cursor stays put.
func (h *History) Back() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.entries[h.pos], true
}

// Forward moves the cursor one entry toward the newest and returns the entry
// there. At the newest entry the cursor stays put.
func (h *History) Forward() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.pos < len(h.entries)-1 {
		h.pos++
	}
	return h.entries[h.pos], true
}

// Current resets the cursor to the newest entry and returns it.
func (h *History) Current() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	h.pos = len(h.entries) - 1
	return h.entries[h.pos], true
}

// Value returns the entry under the cursor without moving it.
func (h *History) Value() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	return h.entries[h.pos], true
}

// Position describes the cursor as "index/last index", e.g. "3/7".
// An empty history reports "-1/-1".
func (h *History) Position() string {
	return fmt.Sprintf("%d/%d", h.pos, len(h.entries)-1)
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Entries returns the entries from oldest to newest.
func (h *History) Entries() []string {
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Path returns the persistence file, or "" for an in-memory history.
func (h *History) Path() string { return h.path }

// Save writes the history as {"0": oldest, ..., "n": newest}. In-memory
// histories are not saved.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}
	m := domain.NewOrderedMap[string]()
	for i, e := range h.entries {
		m.Set(strconv.Itoa(i), e)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
