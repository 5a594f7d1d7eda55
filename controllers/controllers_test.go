package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"TenantHub/blob"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/services"
	"TenantHub/store"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type testServer struct {
	engine *gin.Engine
	mem    *store.Memory
	fs     *blob.FS
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fs, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)
	mem := store.NewMemory()

	h := NewHandler(services.Deps{Records: mem, Blobs: fs}, 1<<20)
	h.Authorize = func(string, string) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }

	r := gin.New()
	Signup(r, h)
	Company(r, h)
	Employees(r, h)
	Projects(r, h)
	Billing(r, h)
	Chat(r, h)
	return &testServer{engine: r, mem: mem, fs: fs}
}

func (s *testServer) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(method, target string, fields map[string]string, files map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	for name, content := range files {
		fw, _ := mw.CreateFormFile("files", name)
		_, _ = fw.Write([]byte(content))
	}
	_ = mw.Close()
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) provision(t *testing.T) models.Company {
	t.Helper()
	w := s.do(http.MethodPost, "/company/create", map[string]interface{}{
		"name": "Acme Inc", "email": "owner@acme.test", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var companies []models.Company
	require.NoError(t, s.mem.FindAll(context.Background(), store.CompanyCollection, bson.M{}, &companies))
	require.Len(t, companies, 1)
	return companies[0]
}

func TestStatusFor(t *testing.T) {
	cases := map[services.Kind]int{
		services.KindValidation:       http.StatusBadRequest,
		services.KindNotFound:         http.StatusNotFound,
		services.KindPathConflict:     http.StatusConflict,
		services.KindStoreUnavailable: http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFor(&services.Error{Kind: kind, Op: "test"}), kind.String())
	}
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("plain")))
}

func TestProvisionAndTeardownRoutes(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/company/create", map[string]interface{}{"name": "Acme Inc", "email": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c := s.provision(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/company/fetch/"+c.Code, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/company/fetch/C404", nil).Code)

	w = s.do(http.MethodDelete, "/company/delete/"+c.Code, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.mem.Count(store.CompanyCollection, bson.M{}))
	for _, coll := range store.DependentCollections {
		assert.Zero(t, s.mem.Count(coll, bson.M{}), coll)
	}

	w = s.do(http.MethodDelete, "/company/delete/"+c.Code, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEmployeeUploadRenameAndDelete(t *testing.T) {
	s := newTestServer(t)
	c := s.provision(t)

	w := s.do(http.MethodPost, "/employee/create/"+c.Code, map[string]interface{}{"name": "Rahul", "email": "rahul@acme.test"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var employees []models.Employee
	require.NoError(t, s.mem.FindAll(context.Background(), store.EmployeeCollection, bson.M{"name": "Rahul"}, &employees))
	require.Len(t, employees, 1)
	id := employees[0].Code

	w = s.upload(http.MethodPost, "/employee/upload/"+id, nil, map[string]string{"a.txt": "a", "b.txt": "b"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.upload(http.MethodPut, "/employee/update/"+id, map[string]string{"name": "Raj"}, map[string]string{"c.txt": "c"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec models.Employee
	require.NoError(t, s.mem.FindOne(context.Background(), store.EmployeeCollection, store.ByCode(id), &rec))
	assert.Equal(t, "Raj", rec.Name)
	require.Len(t, rec.Documents, 3)
	for _, d := range rec.Documents {
		assert.Contains(t, d.Path, "Raj_"+id)
	}

	w = s.do(http.MethodDelete, "/employee/document/"+id+"/"+rec.Documents[0].Code, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodDelete, "/employee/document/"+id+"/"+rec.Documents[0].Code, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/employee/fetchAll/"+c.Code, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/employee/delete/"+id, nil).Code)
	ok, err := s.fs.Exists(context.Background(), paths.Derive(c.Code, c.Name, paths.KindEmployee, id, "Raj"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/employee/fetch/"+id, nil).Code)
}

func TestUploadWithoutFiles(t *testing.T) {
	s := newTestServer(t)
	c := s.provision(t)
	var projects []models.Project
	require.NoError(t, s.mem.FindAll(context.Background(), store.ProjectCollection, store.ByTenant(c.Code), &projects))
	require.Len(t, projects, 1)

	w := s.upload(http.MethodPost, "/project/upload/"+projects[0].Code, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenameProjectJSON(t *testing.T) {
	s := newTestServer(t)
	c := s.provision(t)
	var projects []models.Project
	require.NoError(t, s.mem.FindAll(context.Background(), store.ProjectCollection, store.ByTenant(c.Code), &projects))

	w := s.do(http.MethodPut, "/project/update/"+projects[0].Code, map[string]string{"name": "Apollo", "status": models.StatusInactive})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ok, err := s.fs.Exists(context.Background(), paths.Derive(c.Code, c.Name, paths.KindProject, projects[0].Code, "Apollo"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBillingAndChatRoutes(t *testing.T) {
	s := newTestServer(t)
	c := s.provision(t)

	w := s.do(http.MethodPost, "/billing/invoice/"+c.Code, map[string]interface{}{"description": "Seats", "totalAmount": 50})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var billing models.Billing
	require.NoError(t, s.mem.FindOne(context.Background(), store.BillingCollection, store.ByTenant(c.Code), &billing))
	require.Len(t, billing.Invoices, 2)
	inv := billing.Invoices[1].Code

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/billing/payment/"+c.Code+"/"+inv, map[string]float64{"amount": 20}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/billing/payment/"+c.Code+"/"+inv, map[string]float64{"amount": 40}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/billing/fetch/"+c.Code, nil).Code)

	w = s.do(http.MethodPost, "/chat/session/"+c.Code, map[string]string{"title": "Roadmap"})
	require.Equal(t, http.StatusCreated, w.Code)
	var chat models.AIChat
	require.NoError(t, s.mem.FindOne(context.Background(), store.AIChatCollection, store.ByTenant(c.Code), &chat))
	require.Len(t, chat.Sessions, 2)

	path := "/chat/message/" + c.Code + "/" + chat.Sessions[1].Code
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, path, map[string]string{"sender": "user", "text": "hi"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, path, map[string]string{"sender": "bot", "text": "hi"}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/chat/fetch/"+c.Code, nil).Code)
}

func TestRoleRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Roles(r)

	for target, want := range map[string]int{
		"/roles/fetchAll":      http.StatusOK,
		"/roles/fetch/manager": http.StatusOK,
		"/roles/fetch/doctor":  http.StatusNotFound,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, want, w.Code, target)
	}
}
