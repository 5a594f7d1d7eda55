package services

import (
	"context"
	"strings"
	"sync"

	"TenantHub/events"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/store"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type TeardownResult struct {
	TenantID     string           `json:"tenantId"`
	Deleted      bool             `json:"deleted"`
	Removed      map[string]int64 `json:"removed"`
	BlobsRemoved []string         `json:"blobsRemoved,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
}

type TeardownCoordinator struct {
	Deps
}

func NewTeardownCoordinator(d Deps) *TeardownCoordinator {
	return &TeardownCoordinator{Deps: d.withDefaults()}
}

/*
* Read the company first so its directory name is known
* Delete the company record; an absent company is reported as not deleted
* Delete every dependent collection and every directory of the company concurrently
* A failed dependent delete becomes a warning and never blocks the others
 */
func (t *TeardownCoordinator) Teardown(ctx context.Context, tenantID string) (*TeardownResult, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, validationError("Teardown", "tenant id required")
	}
	res := &TeardownResult{TenantID: tenantID, Removed: map[string]int64{}}
	log := t.Log.With(zap.String("tenantId", tenantID))

	var company models.Company
	known := true
	if err := t.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(tenantID), &company); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error("Error from findOne while fetching company", zap.Error(err))
			return nil, classify("Teardown", err)
		}
		known = false
	}

	n, err := t.Records.Delete(ctx, store.CompanyCollection, store.ByCode(tenantID))
	if err != nil {
		log.Error("Error from deleteOne while deleting company", zap.Error(err))
		return nil, classify("Teardown", err)
	}
	res.Deleted = n > 0
	res.Removed[store.CompanyCollection] = n

	var (
		mu       sync.Mutex
		warnings error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(store.DependentCollections) + 1)
	for _, coll := range store.DependentCollections {
		coll := coll
		g.Go(func() error {
			n, err := t.Records.Delete(gctx, coll, store.ByTenant(tenantID))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				warnings = multierr.Append(warnings, errors.Wrapf(err, "delete %s", coll))
				return nil
			}
			res.Removed[coll] = n
			return nil
		})
	}
	g.Go(func() error {
		removed, err := t.removeTenantDirs(gctx, tenantID, company, known)
		mu.Lock()
		defer mu.Unlock()
		res.BlobsRemoved = removed
		warnings = multierr.Append(warnings, err)
		return nil
	})
	_ = g.Wait()

	for _, w := range multierr.Errors(warnings) {
		log.Warn("Teardown incomplete", zap.Error(w))
		res.Warnings = append(res.Warnings, w.Error())
	}
	if err := t.evictCompany(ctx, tenantID); err != nil {
		log.Warn("Unable to evict company from cache", zap.Error(err))
		res.Warnings = append(res.Warnings, err.Error())
	}
	t.Metrics.RecordTeardown(res.Deleted, len(res.Warnings))
	if res.Deleted {
		t.publish(ctx, events.Event{Type: events.TenantDeleted, TenantID: tenantID})
		log.Info("Company torn down", zap.Any("removed", res.Removed))
	}
	return res, nil
}

// removeTenantDirs removes the derived company directory and every top level
// directory left behind under an older company name.
func (t *TeardownCoordinator) removeTenantDirs(ctx context.Context, tenantID string, company models.Company, known bool) ([]string, error) {
	dirs := map[string]bool{}
	if known {
		dirs[paths.TenantDir(company.Code, company.Name)] = true
	}
	var errs error
	entries, err := t.Blobs.List(ctx, "")
	if err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "list storage root"))
	}
	suffix := paths.TenantSuffix(tenantID)
	for _, e := range entries {
		if e.IsDir && strings.HasSuffix(e.Name, suffix) {
			dirs[e.Name] = true
		}
	}

	var removed []string
	for dir := range dirs {
		exists, err := t.Blobs.Exists(ctx, dir)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "check %s", dir))
			continue
		}
		if !exists {
			continue
		}
		if err := t.Blobs.RemoveTree(ctx, dir); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "remove %s", dir))
			continue
		}
		removed = append(removed, dir)
	}
	return removed, errs
}
