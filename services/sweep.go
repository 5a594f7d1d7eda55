package services

import (
	"context"
	"path"
	"strings"
	"time"

	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type SweepReport struct {
	TenantID        string   `json:"tenantId"`
	DanglingRecords int      `json:"danglingRecords"`
	UntrackedFiles  int      `json:"untrackedFiles"`
	StaleDirs       int      `json:"staleDirs"`
	Warnings        []string `json:"warnings,omitempty"`
}

/*
* For every employee and project of the company:
* drop document records whose file is gone
* remove files in the canonical directory that no record points at
* Then remove directories under the company that no current owner maps to
* Entries younger than the grace window are left for the next run
 */
func (m *DocumentManager) Sweep(ctx context.Context, tenantID string) (*SweepReport, error) {
	var company models.Company
	if err := m.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(tenantID), &company); err != nil {
		return nil, classify("Sweep", err)
	}
	report := &SweepReport{TenantID: tenantID}
	var warnings error
	cutoff := m.Now().Add(-m.SweepGrace)

	for _, kind := range []string{paths.KindEmployee, paths.KindProject} {
		coll, _ := collectionFor(kind)
		var owners []models.DocumentOwner
		if err := m.Records.FindAll(ctx, coll, store.ByTenant(tenantID), &owners); err != nil {
			return nil, classify("Sweep", err)
		}
		live := make(map[string]bool, len(owners))
		liveIDs := make(map[string]bool, len(owners))
		for _, rec := range owners {
			o := &owner{kind: kind, collection: coll, record: rec, company: company}
			live[o.dir()] = true
			liveIDs[rec.Code] = true
			if err := m.sweepOwner(ctx, o, cutoff, report); err != nil {
				warnings = multierr.Append(warnings, err)
			}
		}

		kindDir := path.Join(paths.TenantDir(company.Code, company.Name), kind)
		entries, err := m.Blobs.List(ctx, kindDir)
		if err != nil {
			warnings = multierr.Append(warnings, err)
			continue
		}
		for _, e := range entries {
			p := path.Join(kindDir, e.Name)
			if !e.IsDir || live[p] || !e.ModTime.Before(cutoff) {
				continue
			}
			// a rename in flight moves the directory before the record changes
			if liveIDs[entityIDOf(e.Name)] {
				m.Log.Warn("Directory of a live owner under another name; leaving it", zap.String("dir", p))
				continue
			}
			if err := m.Blobs.RemoveTree(ctx, p); err != nil {
				warnings = multierr.Append(warnings, err)
				continue
			}
			m.Log.Warn(KindOrphanReference.String()+": removed directory with no owner", zap.String("dir", p))
			report.StaleDirs++
		}
	}

	for _, w := range multierr.Errors(warnings) {
		report.Warnings = append(report.Warnings, w.Error())
	}
	m.Metrics.RecordOrphans("record", report.DanglingRecords)
	m.Metrics.RecordOrphans("file", report.UntrackedFiles)
	m.Metrics.RecordOrphans("dir", report.StaleDirs)
	return report, nil
}

func (m *DocumentManager) sweepOwner(ctx context.Context, o *owner, cutoff time.Time, report *SweepReport) error {
	kept := make([]models.Document, 0, len(o.record.Documents))
	tracked := make(map[string]bool, len(o.record.Documents))
	for _, d := range o.record.Documents {
		ok, err := m.Blobs.Exists(ctx, d.Path)
		if err != nil {
			return err
		}
		if !ok {
			m.Log.Warn(KindOrphanReference.String()+": dropping record of missing file",
				zap.String("entityId", o.record.Code), zap.String("path", d.Path))
			report.DanglingRecords++
			continue
		}
		tracked[d.Path] = true
		kept = append(kept, d)
	}
	if len(kept) != len(o.record.Documents) {
		if err := m.Records.Update(ctx, o.collection, o.record.Code, bson.M{"documents": kept, "updatedAt": m.Now()}); err != nil {
			return err
		}
	}

	dir := o.dir()
	entries, err := m.Blobs.List(ctx, dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := path.Join(dir, e.Name)
		if e.IsDir || tracked[p] || !e.ModTime.Before(cutoff) {
			continue
		}
		if err := m.Blobs.RemoveFile(ctx, p); err != nil {
			return err
		}
		m.Log.Warn(KindOrphanReference.String()+": removed untracked file", zap.String("path", p))
		report.UntrackedFiles++
	}
	return nil
}

// entityIDOf returns the id suffix of a canonical entity directory name.
func entityIDOf(dirName string) string {
	i := strings.LastIndex(dirName, "_")
	if i < 0 {
		return ""
	}
	return dirName[i+1:]
}

// CleanStaging removes staged files abandoned for longer than olderThan.
func (m *DocumentManager) CleanStaging(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := m.Blobs.List(ctx, m.StagingDir)
	if err != nil {
		return 0, classify("CleanStaging", err)
	}
	cutoff := m.Now().Add(-olderThan)
	removed := 0
	var errs error
	for _, e := range entries {
		if !e.ModTime.Before(cutoff) {
			continue
		}
		p := path.Join(m.StagingDir, e.Name)
		if e.IsDir {
			err = m.Blobs.RemoveTree(ctx, p)
		} else {
			err = m.Blobs.RemoveFile(ctx, p)
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
	}
	m.Metrics.RecordOrphans("staging", removed)
	return removed, classify("CleanStaging", errs)
}

// SweepAll sweeps every company and returns one report per company.
func (m *DocumentManager) SweepAll(ctx context.Context) ([]*SweepReport, error) {
	var companies []models.Company
	if err := m.Records.FindAll(ctx, store.CompanyCollection, bson.M{}, &companies); err != nil {
		return nil, classify("SweepAll", err)
	}
	var reports []*SweepReport
	for _, c := range companies {
		r, err := m.Sweep(ctx, c.Code)
		if err != nil {
			m.Log.Error("Error from sweep", zap.String("tenantId", c.Code), zap.Error(err))
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}
