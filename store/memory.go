package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

// Memory keeps records in process. Filters match on top-level equality only.
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]bson.M
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]bson.M)}
}

func (m *Memory) Create(ctx context.Context, collection string, doc interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rec, code, err := toDocument(collection, doc)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.collections[collection] {
		if existing[CodeField] == code {
			return "", errors.Errorf("store: duplicate code %q in %s", code, collection)
		}
	}
	m.collections[collection] = append(m.collections[collection], rec)
	return code, nil
}

func (m *Memory) FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := normalizeFilter(filter)
	if err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.collections[collection] {
		if matches(rec, f) {
			return decode(rec, out)
		}
	}
	return errors.Wrapf(ErrNotFound, "%s %v", collection, filter)
}

func (m *Memory) FindAll(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.New("store: FindAll needs a pointer to a slice")
	}
	f, err := normalizeFilter(filter)
	if err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	slice := reflect.MakeSlice(rv.Elem().Type(), 0, 0)
	for _, rec := range m.collections[collection] {
		if !matches(rec, f) {
			continue
		}
		item := reflect.New(rv.Elem().Type().Elem())
		if err := decode(rec, item.Interface()); err != nil {
			return err
		}
		slice = reflect.Append(slice, item.Elem())
	}
	rv.Elem().Set(slice)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, code string, patch bson.M) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := normalizeFilter(patch)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.collections[collection] {
		if rec[CodeField] == code {
			for k, v := range p {
				rec[k] = v
			}
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "%s %s", collection, code)
}

func (m *Memory) Delete(ctx context.Context, collection string, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := normalizeFilter(filter)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.collections[collection][:0]
	var deleted int64
	for _, rec := range m.collections[collection] {
		if matches(rec, f) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	m.collections[collection] = kept
	return deleted, nil
}

// Count is a test convenience returning the number of matching records.
func (m *Memory) Count(collection string, filter bson.M) int {
	f, err := normalizeFilter(filter)
	if err != nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, rec := range m.collections[collection] {
		if matches(rec, f) {
			n++
		}
	}
	return n
}

// normalizeFilter round-trips through bson so values compare with stored ones.
func normalizeFilter(filter bson.M) (bson.M, error) {
	if len(filter) == 0 {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(filter)
	if err != nil {
		return nil, errors.Wrap(err, "marshal filter")
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal filter")
	}
	return out, nil
}

func matches(rec, filter bson.M) bool {
	for k, want := range filter {
		got, ok := rec[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func decode(rec bson.M, out interface{}) error {
	raw, err := bson.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	return errors.Wrap(bson.Unmarshal(raw, out), "decode record")
}
