package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"hookAMM/internal/model"
	"hookAMM/internal/pool"
)

// FileRepository keeps every pool in one JSON document that is rewritten
// atomically on each change.
type FileRepository struct {
	path string

	mu    sync.Mutex
	pools map[string]model.PoolRecord
}

type fileDocument struct {
	Pools     []model.PoolRecord `json:"pools"`
	UpdatedAt string             `json:"updated_at"`
}

// OpenFileRepository loads path if it exists.
func OpenFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}
	r := &FileRepository{path: path, pools: make(map[string]model.PoolRecord)}

	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("stat pool file: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("pool file path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool file: %w", err)
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pool file: %w", err)
	}
	for _, rec := range doc.Pools {
		r.pools[rec.Key().String()] = rec
	}
	return r, nil
}

func (r *FileRepository) Create(_ context.Context, s *pool.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := s.Key()
	id := key.Model().String()
	if _, ok := r.pools[id]; ok {
		return alreadyInitialized(key)
	}
	rec := s.Record()
	rec.Version = 1
	if err := r.persist(id, rec); err != nil {
		return err
	}
	s.Version = 1
	return nil
}

func (r *FileRepository) Get(_ context.Context, key pool.Key) (*pool.State, error) {
	r.mu.Lock()
	rec, ok := r.pools[key.Model().String()]
	r.mu.Unlock()
	if !ok {
		return nil, notFound(key)
	}
	return pool.FromRecord(rec)
}

func (r *FileRepository) Update(_ context.Context, s *pool.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := s.Key()
	id := key.Model().String()
	cur, ok := r.pools[id]
	if !ok {
		return notFound(key)
	}
	if cur.Version != s.Version {
		return versionConflict(key, cur.Version, s.Version)
	}
	rec := s.Record()
	rec.Version = s.Version + 1
	if err := r.persist(id, rec); err != nil {
		return err
	}
	s.Version = rec.Version
	return nil
}

func (r *FileRepository) List(_ context.Context) ([]*pool.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*pool.State, 0, len(r.pools))
	for _, rec := range r.pools {
		s, err := pool.FromRecord(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	SortStates(out)
	return out, nil
}

// persist writes the document with rec applied and only then updates the
// in-memory view. Callers hold r.mu.
func (r *FileRepository) persist(id string, rec model.PoolRecord) error {
	next := make(map[string]model.PoolRecord, len(r.pools)+1)
	for k, v := range r.pools {
		next[k] = v
	}
	next[id] = rec

	doc := fileDocument{
		Pools:     make([]model.PoolRecord, 0, len(next)),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, v := range next {
		doc.Pools = append(doc.Pools, v)
	}

	dir := filepath.Dir(r.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pool dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pools: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write pool tmp: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("rename pool file: %w", err)
	}

	r.pools = next
	return nil
}
