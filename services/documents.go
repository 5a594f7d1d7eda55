package services

import (
	"context"
	"io"
	"path"
	"strings"

	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// DocumentManager keeps document records and stored files in step while
// owners are uploaded to, renamed and deleted.
type DocumentManager struct {
	Deps
}

func NewDocumentManager(d Deps) *DocumentManager {
	return &DocumentManager{Deps: d.withDefaults()}
}

type UploadFile struct {
	Name    string
	Content io.Reader
}

type UploadFailure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

func (f UploadFailure) Error() string {
	return f.Name + ": " + f.Err.Error()
}

type UploadResult struct {
	Documents []models.Document `json:"documents"`
	Failures  []UploadFailure   `json:"failures,omitempty"`
}

type owner struct {
	kind       string
	collection string
	record     models.DocumentOwner
	company    models.Company
}

func (o owner) dir() string {
	return paths.Derive(o.company.Code, o.company.Name, o.kind, o.record.Code, o.record.Name)
}

func collectionFor(kind string) (string, error) {
	switch kind {
	case paths.KindEmployee:
		return store.EmployeeCollection, nil
	case paths.KindProject:
		return store.ProjectCollection, nil
	}
	return "", validationError("collectionFor", "unknown entity kind %q", kind)
}

/*
* Resolve the collection from the kind
* Fetch the owning record and the company it belongs to
 */
func (m *DocumentManager) loadOwner(ctx context.Context, kind, entityID string) (*owner, error) {
	if strings.TrimSpace(entityID) == "" {
		return nil, validationError("loadOwner", "entity id required")
	}
	coll, err := collectionFor(kind)
	if err != nil {
		return nil, err
	}
	o := &owner{kind: kind, collection: coll}
	if err := m.Records.FindOne(ctx, coll, store.ByCode(entityID), &o.record); err != nil {
		m.Log.Error("Error from findOne while fetching owner", zap.String("kind", kind), zap.String("entityId", entityID), zap.Error(err))
		return nil, classify("loadOwner", err)
	}
	if err := m.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(o.record.TenantId), &o.company); err != nil {
		m.Log.Error("Error from findOne while fetching company", zap.String("tenantId", o.record.TenantId), zap.Error(err))
		return nil, classify("loadOwner", err)
	}
	return o, nil
}

// UploadDocuments stages every file, then commits it into the owner's
// canonical directory and records it.
func (m *DocumentManager) UploadDocuments(ctx context.Context, kind, entityID string, files []UploadFile) (*UploadResult, error) {
	if len(files) == 0 {
		return nil, validationError("UploadDocuments", "no files provided")
	}
	o, err := m.loadOwner(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	res, err := m.placeUploads(ctx, o, files)
	m.Metrics.RecordDocumentOperation(kind, "upload", err)
	return res, err
}

type stagedFile struct {
	name        string
	stagingPath string
	size        int64
}

/*
* Write every file into staging; a failed write only drops that file
* Make sure the canonical directory exists
* Move each staged file in; a failed move only drops that file
* Append the committed documents to the owner record in one write
* If that write fails, remove the moved files so no file is left untracked
 */
func (m *DocumentManager) placeUploads(ctx context.Context, o *owner, files []UploadFile) (*UploadResult, error) {
	res := &UploadResult{}
	var staged []stagedFile
	for _, f := range files {
		name := strings.TrimSpace(f.Name)
		if name == "" || f.Content == nil {
			res.Failures = append(res.Failures, UploadFailure{Name: f.Name, Err: validationError("placeUploads", "file name and content required")})
			continue
		}
		sp := paths.StagingPath(m.StagingDir, name)
		n, err := m.Blobs.Write(ctx, sp, f.Content)
		if err != nil {
			m.Log.Error("Error from staging write", zap.String("file", name), zap.Error(err))
			res.Failures = append(res.Failures, UploadFailure{Name: name, Err: classify("stage", err)})
			continue
		}
		staged = append(staged, stagedFile{name: name, stagingPath: sp, size: n})
	}
	if len(staged) == 0 {
		return res, nil
	}

	dir := o.dir()
	if err := m.Blobs.EnsureDir(ctx, dir); err != nil {
		m.Log.Error("Error from ensureDir", zap.String("dir", dir), zap.Error(err))
		for _, s := range staged {
			m.discardStaged(ctx, s.stagingPath)
			res.Failures = append(res.Failures, UploadFailure{Name: s.name, Err: classify("ensureDir", err)})
		}
		return res, nil
	}

	now := m.Now()
	var committed []models.Document
	for _, s := range staged {
		dst, err := m.freePath(ctx, dir, s.name, now.Format("20060102-150405"))
		if err == nil {
			err = m.Blobs.Move(ctx, s.stagingPath, dst)
		}
		if err != nil {
			m.Log.Error("Error from commit move", zap.String("file", s.name), zap.Error(err))
			m.discardStaged(ctx, s.stagingPath)
			res.Failures = append(res.Failures, UploadFailure{Name: s.name, Err: classify("commit", err)})
			continue
		}
		committed = append(committed, models.Document{
			Code:       store.DocumentCode(),
			Name:       s.name,
			Path:       dst,
			Size:       s.size,
			UploadedAt: now,
		})
	}
	if len(committed) == 0 {
		return res, nil
	}

	docs := append(append([]models.Document{}, o.record.Documents...), committed...)
	err := m.Records.Update(ctx, o.collection, o.record.Code, bson.M{"documents": docs, "updatedAt": now})
	if err != nil {
		m.Log.Error("Error from updateOne while recording uploads", zap.String("entityId", o.record.Code), zap.Error(err))
		for _, d := range committed {
			if rmErr := m.Blobs.RemoveFile(ctx, d.Path); rmErr != nil {
				m.Log.Warn("Unable to remove uncommitted upload", zap.String("path", d.Path), zap.Error(rmErr))
			}
		}
		return res, classify("recordUploads", err)
	}
	o.record.Documents = docs
	res.Documents = committed
	return res, nil
}

// freePath picks a file name inside dir that is not taken yet.
func (m *DocumentManager) freePath(ctx context.Context, dir, name, stamp string) (string, error) {
	candidate := path.Join(dir, stamp+"_"+paths.Normalize(name))
	for i := 0; i < 3; i++ {
		taken, err := m.Blobs.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = path.Join(dir, stamp+"_"+uuid.NewString()[:8]+"_"+paths.Normalize(name))
	}
	return "", &Error{Kind: KindPathConflict, Op: "freePath", Err: errExhausted(dir, name)}
}

func (m *DocumentManager) discardStaged(ctx context.Context, p string) {
	if err := m.Blobs.RemoveFile(ctx, p); err != nil {
		m.Log.Warn("Unable to remove staged file", zap.String("path", p), zap.Error(err))
	}
}

/*
* Find the document inside its owner
* Remove the file when it is there; a missing file is only logged
* A file that exists but cannot be removed keeps the record
* Drop the sub-record from the owner
 */
func (m *DocumentManager) DeleteDocument(ctx context.Context, kind, entityID, documentCode string) (err error) {
	defer func() { m.Metrics.RecordDocumentOperation(kind, "delete_document", err) }()

	o, err := m.loadOwner(ctx, kind, entityID)
	if err != nil {
		return err
	}
	idx := -1
	for i, d := range o.record.Documents {
		if d.Code == documentCode {
			idx = i
			break
		}
	}
	if idx < 0 {
		return notFoundError("DeleteDocument", "document %q not found on %s %s", documentCode, kind, entityID)
	}
	doc := o.record.Documents[idx]

	exists, err := m.Blobs.Exists(ctx, doc.Path)
	if err != nil {
		m.Log.Error("Error from exists", zap.String("path", doc.Path), zap.Error(err))
		return classify("DeleteDocument", err)
	}
	if exists {
		if err := m.Blobs.RemoveFile(ctx, doc.Path); err != nil {
			m.Log.Error("Error from removeFile", zap.String("path", doc.Path), zap.Error(err))
			return classify("DeleteDocument", err)
		}
	} else {
		m.Log.Warn(KindOrphanReference.String()+": document file already missing",
			zap.String("entityId", entityID), zap.String("document", documentCode), zap.String("path", doc.Path))
	}

	docs := make([]models.Document, 0, len(o.record.Documents)-1)
	docs = append(docs, o.record.Documents[:idx]...)
	docs = append(docs, o.record.Documents[idx+1:]...)
	if err := m.Records.Update(ctx, o.collection, o.record.Code, bson.M{"documents": docs, "updatedAt": m.Now()}); err != nil {
		m.Log.Error("Error from updateOne while removing document", zap.String("entityId", entityID), zap.Error(err))
		return classify("DeleteDocument", err)
	}
	return nil
}
