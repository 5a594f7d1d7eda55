package migrations

import (
	"context"
	"path"

	"TenantHub/blob"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/store"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type LegacyReport struct {
	Owners   int
	Files    int
	Skipped  int
	Warnings []string
}

type legacyOwner struct {
	company models.Company
	kind    string
	coll    string
	record  models.DocumentOwner
}

func (o legacyOwner) dir() string {
	return paths.LegacyDir(o.company.Name, o.kind, o.record.Name)
}

/*
* Load every employee and project of every company
* Count how many owners map to each legacy directory; companies with the same name share them
* Skip owners whose legacy directory is claimed more than once
* Move the legacy directory to the canonical one, or file by file when both exist
* Rewrite the stored paths that pointed into the legacy directory
 */
func MigrateLegacyDocumentPaths(ctx context.Context, records store.RecordStore, blobs blob.Store, log *zap.Logger) (*LegacyReport, error) {
	var companies []models.Company
	if err := records.FindAll(ctx, store.CompanyCollection, bson.M{}, &companies); err != nil {
		return nil, errors.Wrap(err, "list companies")
	}
	report := &LegacyReport{}
	var warnings error

	var owners []legacyOwner
	claims := map[string]int{}
	for _, company := range companies {
		for _, kind := range []string{paths.KindEmployee, paths.KindProject} {
			coll := store.EmployeeCollection
			if kind == paths.KindProject {
				coll = store.ProjectCollection
			}
			var recs []models.DocumentOwner
			if err := records.FindAll(ctx, coll, store.ByTenant(company.Code), &recs); err != nil {
				warnings = multierr.Append(warnings, errors.Wrapf(err, "list %s of %s", coll, company.Code))
				continue
			}
			for _, rec := range recs {
				o := legacyOwner{company: company, kind: kind, coll: coll, record: rec}
				claims[o.dir()]++
				owners = append(owners, o)
			}
		}
	}

	for _, o := range owners {
		legacy := o.dir()
		if claims[legacy] > 1 {
			if ok, _ := blobs.Exists(ctx, legacy); ok {
				log.Warn("Legacy directory shared by several owners; leaving it", zap.String("dir", legacy))
				report.Skipped++
			}
			continue
		}
		moved, err := migrateOwner(ctx, records, blobs, o.company, o.kind, o.coll, o.record)
		if err != nil {
			warnings = multierr.Append(warnings, errors.Wrapf(err, "migrate %s", o.record.Code))
			continue
		}
		if moved > 0 {
			report.Owners++
			report.Files += moved
		}
	}

	for _, w := range multierr.Errors(warnings) {
		log.Warn("Legacy path migration incomplete", zap.Error(w))
		report.Warnings = append(report.Warnings, w.Error())
	}
	log.Info("Migration applied", zap.Int("owners", report.Owners), zap.Int("files", report.Files))
	return report, nil
}

func migrateOwner(ctx context.Context, records store.RecordStore, blobs blob.Store, company models.Company, kind, coll string, o models.DocumentOwner) (int, error) {
	legacy := paths.LegacyDir(company.Name, kind, o.Name)
	canonical := paths.Derive(company.Code, company.Name, kind, o.Code, o.Name)
	exists, err := blobs.Exists(ctx, legacy)
	if err != nil || !exists {
		return 0, err
	}
	entries, err := blobs.List(ctx, legacy)
	if err != nil {
		return 0, err
	}

	target, err := blobs.Exists(ctx, canonical)
	if err != nil {
		return 0, err
	}
	moved := 0
	if !target {
		if err := blobs.Move(ctx, legacy, canonical); err != nil {
			return 0, err
		}
		moved = len(entries)
	} else {
		for _, e := range entries {
			err := blobs.Move(ctx, path.Join(legacy, e.Name), path.Join(canonical, e.Name))
			if errors.Is(err, blob.ErrExists) {
				continue
			}
			if err != nil {
				return moved, err
			}
			moved++
		}
		if rest, err := blobs.List(ctx, legacy); err == nil && len(rest) == 0 {
			if err := blobs.RemoveTree(ctx, legacy); err != nil {
				return moved, err
			}
		}
	}

	docs := make([]models.Document, len(o.Documents))
	changed := false
	for i, d := range o.Documents {
		if p, ok := paths.Rebase(d.Path, legacy, canonical); ok {
			if found, err := blobs.Exists(ctx, p); err == nil && found {
				d.Path = p
				changed = true
			}
		}
		docs[i] = d
	}
	if changed {
		if err := records.Update(ctx, coll, o.Code, bson.M{"documents": docs}); err != nil {
			return moved, err
		}
	}
	return moved, nil
}
