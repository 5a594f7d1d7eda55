package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"TenantHub/blob"
	"TenantHub/events"
	"TenantHub/metrics"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/store"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var errInjected = errors.New("injected store failure")

// faultyStore fails the configured operations per collection.
type faultyStore struct {
	store.RecordStore
	mu         sync.Mutex
	failCreate map[string]error
	failUpdate map[string]error
	failDelete map[string]error
}

func newFaultyStore(inner store.RecordStore) *faultyStore {
	return &faultyStore{
		RecordStore: inner,
		failCreate:  map[string]error{},
		failUpdate:  map[string]error{},
		failDelete:  map[string]error{},
	}
}

func (f *faultyStore) fail(ops map[string]error, coll string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ops[coll]
}

func (f *faultyStore) Create(ctx context.Context, coll string, doc interface{}) (string, error) {
	if err := f.fail(f.failCreate, coll); err != nil {
		return "", err
	}
	return f.RecordStore.Create(ctx, coll, doc)
}

func (f *faultyStore) Update(ctx context.Context, coll, code string, patch bson.M) error {
	if err := f.fail(f.failUpdate, coll); err != nil {
		return err
	}
	return f.RecordStore.Update(ctx, coll, code, patch)
}

func (f *faultyStore) Delete(ctx context.Context, coll string, filter bson.M) (int64, error) {
	if err := f.fail(f.failDelete, coll); err != nil {
		return 0, err
	}
	return f.RecordStore.Delete(ctx, coll, filter)
}

type fixture struct {
	mem    *store.Memory
	faulty *faultyStore
	fs     *blob.FS
	events *events.Recorder
	deps   Deps
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	mem := store.NewMemory()
	f := &fixture{
		mem:    mem,
		faulty: newFaultyStore(mem),
		fs:     fs,
		events: &events.Recorder{},
		now:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	f.deps = Deps{
		Records: f.faulty,
		Blobs:   fs,
		Events:  f.events,
		Metrics: metrics.New("test", prometheus.NewRegistry()),
		Now:     func() time.Time { return f.now },
	}
	return f
}

func (f *fixture) documents() *DocumentManager {
	return NewDocumentManager(f.deps)
}

// seedCompany writes a bare company record and returns it.
func (f *fixture) seedCompany(t *testing.T, code, name string) models.Company {
	t.Helper()
	c := models.Company{Code: code, Name: name, Email: strings.ToLower(code) + "@example.com", Status: models.CompanyStatusActive}
	_, err := f.mem.Create(context.Background(), store.CompanyCollection, c)
	require.NoError(t, err)
	return c
}

func (f *fixture) seedEmployee(t *testing.T, tenantID, code, name string) {
	t.Helper()
	_, err := f.mem.Create(context.Background(), store.EmployeeCollection, models.Employee{
		Code: code, TenantId: tenantID, Name: name, Status: models.StatusActive, Documents: []models.Document{},
	})
	require.NoError(t, err)
}

func (f *fixture) owner(t *testing.T, coll, code string) models.DocumentOwner {
	t.Helper()
	var o models.DocumentOwner
	require.NoError(t, f.mem.FindOne(context.Background(), coll, store.ByCode(code), &o))
	return o
}

func (f *fixture) exists(t *testing.T, p string) bool {
	t.Helper()
	ok, err := f.fs.Exists(context.Background(), p)
	require.NoError(t, err)
	return ok
}

func file(name, content string) UploadFile {
	return UploadFile{Name: name, Content: strings.NewReader(content)}
}

func employeeDir(c models.Company, id, name string) string {
	return paths.Derive(c.Code, c.Name, paths.KindEmployee, id, name)
}
