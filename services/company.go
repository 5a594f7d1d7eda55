package services

import (
	"context"
	"strings"

	"TenantHub/models"
	"TenantHub/store"

	"go.uber.org/zap"
)

type CompanyService struct {
	Deps
	docs *DocumentManager
}

func NewCompanyService(d Deps, docs *DocumentManager) *CompanyService {
	d = d.withDefaults()
	if docs == nil {
		docs = NewDocumentManager(d)
	}
	return &CompanyService{Deps: d, docs: docs}
}

/*
* Serve from cache when present
* Fall back to the record store and refill the cache
 */
func (c *CompanyService) FetchCompany(ctx context.Context, tenantID string) (*models.Company, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, validationError("FetchCompany", "tenant id required")
	}
	key := CompanyKey + tenantID
	var company models.Company
	found, err := c.Cache.Get(ctx, key, &company)
	if err != nil {
		c.Log.Warn("Error from getCache", zap.String("key", key), zap.Error(err))
	}
	if found {
		return &company, nil
	}
	if err := c.Records.FindOne(ctx, store.CompanyCollection, store.ByCode(tenantID), &company); err != nil {
		c.Log.Error("Error from findOne while fetching company", zap.String("tenantId", tenantID), zap.Error(err))
		return nil, classify("FetchCompany", err)
	}
	if err := c.Cache.Set(ctx, key, company); err != nil {
		c.Log.Warn("Error from setCache", zap.String("key", key), zap.Error(err))
	}
	return &company, nil
}

// RenameCompany renames the company and moves its whole storage tree.
func (c *CompanyService) RenameCompany(ctx context.Context, tenantID, newName string) (*models.Company, error) {
	if err := c.docs.RenameTenant(ctx, tenantID, newName); err != nil {
		return nil, err
	}
	return c.FetchCompany(ctx, tenantID)
}
