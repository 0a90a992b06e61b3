// Package hash implements the field name hashes used by BCSV files and a
// lookup table that maps hashes back to readable names.
package hash

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Func computes the 32-bit hash of a field name.
type Func func(name string) uint32

// oldHashModulus is the prime the older hash reduces by after every byte.
const oldHashModulus = 33554393

// Calc hashes a field name: h = b + h*31 over every byte, wrapping at 32 bits.
func Calc(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = uint32(name[i]) + h*31
	}
	return h
}

// CalcOld is the hash used by the first generation of files.
func CalcOld(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = ((uint32(name[i]) << 8) + h) % oldHashModulus
	}
	return h
}

// Table maps hashes to the names they were computed from. It is not
// mutated by the codec, so one Table can be shared between goroutines
// once it has been built.
type Table struct {
	fn    Func
	names map[uint32]string
}

// New creates a table using Calc and seeds it with names.
func New(names ...string) *Table {
	t := NewWithFunc(Calc)
	for _, n := range names {
		t.Add(n)
	}
	return t
}

// NewWithFunc creates an empty table that hashes names with fn.
func NewWithFunc(fn Func) *Table {
	if fn == nil {
		fn = Calc
	}
	return &Table{fn: fn, names: make(map[uint32]string)}
}

// Add hashes name and records it. Later names win on collision.
func (t *Table) Add(name string) uint32 {
	h := t.fn(name)
	t.names[h] = name
	return h
}

// Hash returns the hash of name using the table's hash function.
func (t *Table) Hash(name string) uint32 {
	if t == nil {
		return Calc(name)
	}
	return t.fn(name)
}

// Lookup returns the name registered for h.
func (t *Table) Lookup(h uint32) (string, bool) {
	if t == nil {
		return "", false
	}
	name, ok := t.names[h]
	return name, ok
}

// Name returns the registered name for h, or its hex form (0x + uppercase
// hex digits) when the hash is unknown.
func (t *Table) Name(h uint32) string {
	if name, ok := t.Lookup(h); ok {
		return name
	}
	return Hex(h)
}

// Len returns the number of names in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Hex renders a hash the way unnamed columns are labelled.
func Hex(h uint32) string {
	return fmt.Sprintf("0x%X", h)
}

// Load reads one name per line. Lines starting with '#' are comments and
// blank lines are skipped.
func Load(r io.Reader, fn Func) (*Table, error) {
	t := NewWithFunc(fn)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		t.Add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hash list: %w", err)
	}
	return t, nil
}

// LoadFile loads a name list from path.
func LoadFile(path string, fn Func) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hash list: %w", err)
	}
	defer f.Close()

	return Load(f, fn)
}
