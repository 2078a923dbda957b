// Package store persists the order lifecycle document: a single JSON file
// holding every order the trader has placed, its last known status, and the
// buy/sell linkage. The document is read fully at the start of a run and
// rewritten fully after every mutating step, so an interrupted run leaves a
// consistent, resumable file. One run owns the file exclusively; there is no
// cross-process locking.
package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"ataix-trader/internal/core"
)

// Document is the persisted order sequence.
type Document struct {
	Orders []core.OrderRecord `json:"orders"`
}

func NewDocument() *Document {
	return &Document{Orders: make([]core.OrderRecord, 0)}
}

// Append adds a record and returns its index.
func (d *Document) Append(rec core.OrderRecord) int {
	d.Orders = append(d.Orders, rec)
	return len(d.Orders) - 1
}

// FindByRef returns the index of the record whose exchange order id or local
// id matches ref, or -1.
func (d *Document) FindByRef(ref string) int {
	if ref == "" {
		return -1
	}
	for i := range d.Orders {
		if d.Orders[i].OrderID == ref || d.Orders[i].ID == ref {
			return i
		}
	}
	return -1
}

type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Load reads the full document. A missing file yields an empty document with
// ok=false and no error; an unreadable or corrupt file also yields an empty
// document, with the cause returned so the caller can log it. Corruption is
// treated as "no prior state", never as fatal.
func (s *Store) Load() (*Document, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDocument(), false, nil
		}
		return NewDocument(), false, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return NewDocument(), false, err
	}
	if doc.Orders == nil {
		doc.Orders = make([]core.OrderRecord, 0)
	}
	return &doc, true, nil
}

// Save rewrites the whole document atomically: encoded to a temp file in the
// same directory, synced, then renamed over the target.
func (s *Store) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Orders == nil {
		doc.Orders = make([]core.OrderRecord, 0)
	}
	return writeJSONAtomic(s.path, doc)
}

func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	return fsyncDirBestEffort(dir, path)
}

func fsyncDirBestEffort(dir, path string) error {
	// Best-effort directory fsync to improve rename durability across crashes.
	d, err := os.Open(dir)
	if err != nil {
		log.Printf(
			"level=WARN event=store_dir_fsync_skipped reason=%q dir=%q target=%q",
			err.Error(),
			dir,
			path,
		)
		return nil
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		log.Printf(
			"level=WARN event=store_dir_fsync_failed reason=%q dir=%q target=%q",
			err.Error(),
			dir,
			path,
		)
		return nil
	}
	return nil
}
