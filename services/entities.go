package services

import (
	"context"
	"strings"
	"time"

	"TenantHub/events"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/role"
	"TenantHub/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type EntityInput struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Designation string    `json:"designation"`
	Role        string    `json:"role"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

// EntityUpdate applies a rename before any upload of the same request.
type EntityUpdate struct {
	Name   *string
	Status *string
	Files  []UploadFile
}

type EntityUpdateResult struct {
	Record models.DocumentOwner `json:"record"`
	Upload *UploadResult        `json:"upload,omitempty"`
}

// PrepareDir creates the canonical directory of an owner that has no documents yet.
func (m *DocumentManager) PrepareDir(ctx context.Context, company models.Company, kind, entityID, entityName string) (string, error) {
	dir := paths.Derive(company.Code, company.Name, kind, entityID, entityName)
	if err := m.Blobs.EnsureDir(ctx, dir); err != nil {
		m.Log.Error("Error from ensureDir", zap.String("dir", dir), zap.Error(err))
		return "", classify("PrepareDir", err)
	}
	return dir, nil
}

/*
* Validate the name and the kind
* The company must exist
* Create the canonical directory before the record that points at it
* Remove the directory again when the record cannot be written
 */
func (m *DocumentManager) CreateEntity(ctx context.Context, kind, tenantID string, in EntityInput) (string, error) {
	coll, err := collectionFor(kind)
	if err != nil {
		return "", err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return "", validationError("CreateEntity", "name required")
	}
	if strings.TrimSpace(tenantID) == "" {
		return "", validationError("CreateEntity", "tenant id required")
	}
	var company models.Company
	if err := m.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(tenantID), &company); err != nil {
		m.Log.Error("Error from findOne while fetching company", zap.String("tenantId", tenantID), zap.Error(err))
		return "", classify("CreateEntity", err)
	}
	status := in.Status
	if status == "" {
		status = models.StatusActive
	}
	now := m.Now()
	code := store.NewCode(coll)

	var doc interface{}
	switch kind {
	case paths.KindEmployee:
		r := role.Employee
		if in.Role != "" {
			if r, err = role.Parse(in.Role); err != nil {
				return "", validationError("CreateEntity", "%v", err)
			}
		}
		doc = models.Employee{
			Code: code, TenantId: tenantID, Name: in.Name, Email: in.Email, Designation: in.Designation,
			Role: r, Status: status, Documents: []models.Document{}, CreatedAt: now, UpdatedAt: now,
		}
	case paths.KindProject:
		start, end := in.StartDate, in.EndDate
		if start.IsZero() {
			start = startOfDay(now)
		}
		if end.IsZero() {
			end = start
		}
		if end.Before(start) {
			return "", validationError("CreateEntity", "project ends before it starts")
		}
		doc = models.Project{
			Code: code, TenantId: tenantID, Name: in.Name, Description: in.Description, Status: status,
			StartDate: start, EndDate: end, Documents: []models.Document{}, CreatedAt: now, UpdatedAt: now,
		}
	}

	dir, err := m.PrepareDir(ctx, company, kind, code, in.Name)
	if err != nil {
		return "", err
	}
	if _, err := m.Records.Create(ctx, coll, doc); err != nil {
		m.Log.Error("Error from createOne", zap.String("kind", kind), zap.Error(err))
		if rmErr := m.Blobs.RemoveTree(ctx, dir); rmErr != nil {
			m.Log.Warn("Unable to remove directory of unwritten record", zap.String("dir", dir), zap.Error(rmErr))
		}
		return "", classify("CreateEntity", err)
	}
	m.Metrics.RecordDocumentOperation(kind, "create_entity", nil)
	return code, nil
}

// FetchEntity decodes one employee or project into out.
func (m *DocumentManager) FetchEntity(ctx context.Context, kind, entityID string, out interface{}) error {
	coll, err := collectionFor(kind)
	if err != nil {
		return err
	}
	if err := m.Records.FindOne(ctx, coll, store.ByCode(entityID), out); err != nil {
		return classify("FetchEntity", err)
	}
	return nil
}

// ListEntities decodes every employee or project of a company into out.
func (m *DocumentManager) ListEntities(ctx context.Context, kind, tenantID string, out interface{}) error {
	coll, err := collectionFor(kind)
	if err != nil {
		return err
	}
	return classify("ListEntities", m.Records.FindAll(ctx, coll, store.ByTenant(tenantID), out))
}

/*
* Rename first so the directory already carries its final name
* Apply a status change in the same record write when there is no rename
* Place the uploads into the directory that results
 */
func (m *DocumentManager) UpdateEntity(ctx context.Context, kind, entityID string, upd EntityUpdate) (*EntityUpdateResult, error) {
	o, err := m.loadOwner(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil && strings.TrimSpace(*upd.Status) == "" {
		return nil, validationError("UpdateEntity", "status must not be empty")
	}
	extra := bson.M{}
	if upd.Status != nil {
		extra["status"] = strings.TrimSpace(*upd.Status)
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) != o.record.Name {
		if err := m.rename(ctx, o, *upd.Name, extra); err != nil {
			return nil, err
		}
	} else if len(extra) > 0 {
		extra["updatedAt"] = m.Now()
		if err := m.Records.Update(ctx, o.collection, o.record.Code, extra); err != nil {
			m.Log.Error("Error from updateOne", zap.String("entityId", entityID), zap.Error(err))
			return nil, classify("UpdateEntity", err)
		}
		o.record.Status = extra["status"].(string)
	}

	res := &EntityUpdateResult{}
	if len(upd.Files) > 0 {
		up, err := m.placeUploads(ctx, o, upd.Files)
		m.Metrics.RecordDocumentOperation(kind, "upload", err)
		if err != nil {
			return nil, err
		}
		res.Upload = up
	}
	res.Record = o.record
	return res, nil
}

/*
* Remove the canonical directory
* Remove directories left under an earlier name of the same entity
* Remove the name-only legacy directory unless a sibling still answers to that name
* Delete the record last
 */
func (m *DocumentManager) DeleteEntity(ctx context.Context, kind, entityID string) (err error) {
	defer func() { m.Metrics.RecordDocumentOperation(kind, "delete_entity", err) }()

	coll, err := collectionFor(kind)
	if err != nil {
		return err
	}
	var rec models.DocumentOwner
	if err := m.Records.FindOne(ctx, coll, store.ByCode(entityID), &rec); err != nil {
		return classify("DeleteEntity", err)
	}
	var company models.Company
	cerr := m.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(rec.TenantId), &company)
	switch {
	case cerr == nil:
		o := &owner{kind: kind, collection: coll, record: rec, company: company}
		if err := m.removeOwnerDirs(ctx, o); err != nil {
			return err
		}
	case IsKind(classify("", cerr), KindNotFound):
		m.Log.Warn("Company missing while deleting entity; skipping directory cleanup",
			zap.String("tenantId", rec.TenantId), zap.String("entityId", entityID))
	default:
		return classify("DeleteEntity", cerr)
	}

	if _, err := m.Records.Delete(ctx, coll, store.ByCode(entityID)); err != nil {
		m.Log.Error("Error from deleteOne", zap.String("entityId", entityID), zap.Error(err))
		return classify("DeleteEntity", err)
	}
	m.publish(ctx, events.Event{Type: events.EntityDeleted, TenantID: rec.TenantId, EntityKind: kind, EntityID: entityID})
	return nil
}

func (m *DocumentManager) removeOwnerDirs(ctx context.Context, o *owner) error {
	dirs := []string{o.dir()}

	kindDir := paths.TenantDir(o.company.Code, o.company.Name) + "/" + o.kind
	entries, err := m.Blobs.List(ctx, kindDir)
	if err != nil {
		return classify("DeleteEntity", err)
	}
	suffix := "_" + o.record.Code
	for _, e := range entries {
		p := kindDir + "/" + e.Name
		if e.IsDir && strings.HasSuffix(e.Name, suffix) && p != dirs[0] {
			dirs = append(dirs, p)
		}
	}

	legacy := paths.LegacyDir(o.company.Name, o.kind, o.record.Name)
	shared, err := m.legacyNameShared(ctx, o)
	if err != nil {
		return err
	}
	if !shared {
		dirs = append(dirs, legacy)
	}

	for _, d := range dirs {
		if err := m.Blobs.RemoveTree(ctx, d); err != nil {
			m.Log.Error("Error from removeTree", zap.String("dir", d), zap.Error(err))
			return classify("DeleteEntity", err)
		}
	}
	return nil
}

// legacyNameShared reports whether any other owner of the same kind maps to
// the same legacy directory. Legacy paths carry no company id, so companies
// with the same normalized name share them.
func (m *DocumentManager) legacyNameShared(ctx context.Context, o *owner) (bool, error) {
	var companies []models.Company
	if err := m.Records.FindAll(ctx, store.CompanyCollection, bson.M{}, &companies); err != nil {
		return false, classify("DeleteEntity", err)
	}
	legacy := paths.LegacyDir(o.company.Name, o.kind, o.record.Name)
	for _, c := range companies {
		if paths.Normalize(c.Name) != paths.Normalize(o.company.Name) {
			continue
		}
		var siblings []models.DocumentOwner
		if err := m.Records.FindAll(ctx, o.collection, store.ByTenant(c.Code), &siblings); err != nil {
			return false, classify("DeleteEntity", err)
		}
		for _, s := range siblings {
			if s.Code != o.record.Code && paths.LegacyDir(c.Name, o.kind, s.Name) == legacy {
				return true, nil
			}
		}
	}
	return false, nil
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
