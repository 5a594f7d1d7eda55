package services

import (
	"context"
	"strings"

	"TenantHub/events"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// RenameEntity changes the display name of an employee or project and moves
// its documents to the directory derived from the new name.
func (m *DocumentManager) RenameEntity(ctx context.Context, kind, entityID, newName string) (err error) {
	defer func() { m.Metrics.RecordDocumentOperation(kind, "rename", err) }()

	o, err := m.loadOwner(ctx, kind, entityID)
	if err != nil {
		return err
	}
	return m.rename(ctx, o, newName, nil)
}

// relocation is a directory move that can be undone.
type relocation struct {
	from, to string
	moved    bool
	created  bool
}

/*
* Old directory exists: move the whole tree, refusing an occupied destination
* Old directory missing: only make sure the new one exists
 */
func (m *DocumentManager) relocate(ctx context.Context, from, to string) (*relocation, error) {
	r := &relocation{from: from, to: to}
	if from == to {
		return r, nil
	}
	oldExists, err := m.Blobs.Exists(ctx, from)
	if err != nil {
		return nil, classify("relocate", err)
	}
	newExists, err := m.Blobs.Exists(ctx, to)
	if err != nil {
		return nil, classify("relocate", err)
	}
	if oldExists {
		if newExists {
			return nil, &Error{Kind: KindPathConflict, Op: "relocate", Err: errOccupied(to)}
		}
		if err := m.Blobs.Move(ctx, from, to); err != nil {
			m.Log.Error("Error from move", zap.String("from", from), zap.String("to", to), zap.Error(err))
			return nil, classify("relocate", err)
		}
		r.moved = true
		return r, nil
	}
	if !newExists {
		if err := m.Blobs.EnsureDir(ctx, to); err != nil {
			return nil, classify("relocate", err)
		}
		r.created = true
	}
	return r, nil
}

func (m *DocumentManager) undo(ctx context.Context, r *relocation) {
	var err error
	switch {
	case r.moved:
		err = m.Blobs.Move(ctx, r.to, r.from)
	case r.created:
		err = m.Blobs.RemoveTree(ctx, r.to)
	}
	if err != nil {
		m.Log.Error("Unable to undo directory relocation", zap.String("from", r.from), zap.String("to", r.to), zap.Error(err))
	}
}

func rebaseDocuments(docs []models.Document, from, to string) ([]models.Document, int) {
	out := make([]models.Document, len(docs))
	stale := 0
	for i, d := range docs {
		if p, ok := paths.Rebase(d.Path, from, to); ok {
			d.Path = p
		} else {
			stale++
		}
		out[i] = d
	}
	return out, stale
}

/*
* Derive the directory for the name before and after the change
* Relocate the directory, then rewrite every stored path under it
* Write name, paths and any extra fields in one record update
* Put the directory back when the record update fails
 */
func (m *DocumentManager) rename(ctx context.Context, o *owner, newName string, extra bson.M) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return validationError("rename", "name required")
	}
	from := o.dir()
	renamed := *o
	renamed.record.Name = newName
	to := renamed.dir()

	r, err := m.relocate(ctx, from, to)
	if err != nil {
		return err
	}
	docs, stale := rebaseDocuments(o.record.Documents, from, to)
	if stale > 0 {
		m.Log.Warn("Documents outside the canonical directory were not rewritten",
			zap.String("entityId", o.record.Code), zap.Int("count", stale))
	}

	patch := bson.M{"name": newName, "documents": docs, "updatedAt": m.Now()}
	for k, v := range extra {
		patch[k] = v
	}
	if err := m.Records.Update(ctx, o.collection, o.record.Code, patch); err != nil {
		m.Log.Error("Error from updateOne while renaming", zap.String("entityId", o.record.Code), zap.Error(err))
		m.undo(ctx, r)
		return classify("rename", err)
	}

	oldName := o.record.Name
	o.record.Name = newName
	o.record.Documents = docs
	if s, ok := extra["status"].(string); ok {
		o.record.Status = s
	}
	m.publish(ctx, events.Event{
		Type: events.EntityRenamed, TenantID: o.company.Code, EntityKind: o.kind, EntityID: o.record.Code,
		Data: map[string]interface{}{"from": oldName, "to": newName},
	})
	return nil
}

/*
* Move the company root directory to the new name
* Rewrite the paths of every employee and project document under it
* Write the new company name last
* Any failure puts back the records already rewritten and the directory
 */
func (m *DocumentManager) RenameTenant(ctx context.Context, tenantID, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return validationError("RenameTenant", "name required")
	}
	var company models.Company
	if err := m.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(tenantID), &company); err != nil {
		return classify("RenameTenant", err)
	}
	if company.Name == newName {
		return nil
	}
	from := paths.TenantDir(company.Code, company.Name)
	to := paths.TenantDir(company.Code, newName)

	r, err := m.relocate(ctx, from, to)
	if err != nil {
		return err
	}

	type rewritten struct {
		collection string
		code       string
		before     []models.Document
	}
	var done []rewritten
	rollback := func() {
		for _, rw := range done {
			if err := m.Records.Update(ctx, rw.collection, rw.code, bson.M{"documents": rw.before}); err != nil {
				m.Log.Error("Unable to restore document paths", zap.String("entityId", rw.code), zap.Error(err))
			}
		}
		m.undo(ctx, r)
	}

	for _, kind := range []string{paths.KindEmployee, paths.KindProject} {
		coll, _ := collectionFor(kind)
		var owners []models.DocumentOwner
		if err := m.Records.FindAll(ctx, coll, store.ByTenant(tenantID), &owners); err != nil {
			rollback()
			return classify("RenameTenant", err)
		}
		for _, ow := range owners {
			if len(ow.Documents) == 0 {
				continue
			}
			docs, _ := rebaseDocuments(ow.Documents, from, to)
			if err := m.Records.Update(ctx, coll, ow.Code, bson.M{"documents": docs}); err != nil {
				m.Log.Error("Error from updateOne while rewriting paths", zap.String("entityId", ow.Code), zap.Error(err))
				rollback()
				return classify("RenameTenant", err)
			}
			done = append(done, rewritten{collection: coll, code: ow.Code, before: ow.Documents})
		}
	}

	if err := m.Records.Update(ctx, store.CompanyCollection, tenantID, bson.M{"name": newName, "updatedAt": m.Now()}); err != nil {
		m.Log.Error("Error from updateOne while renaming company", zap.String("tenantId", tenantID), zap.Error(err))
		rollback()
		return classify("RenameTenant", err)
	}
	if err := m.evictCompany(ctx, tenantID); err != nil {
		m.Log.Warn("Failed deleting old company cache", zap.String("tenantId", tenantID), zap.Error(err))
	}
	m.publish(ctx, events.Event{
		Type: events.EntityRenamed, TenantID: tenantID, EntityKind: "company", EntityID: tenantID,
		Data: map[string]interface{}{"from": company.Name, "to": newName},
	})
	return nil
}
