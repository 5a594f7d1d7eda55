// Package store is the record-store client: create, find, update and delete
// schemaless documents keyed by their "code". No operation spans more than one
// collection, so callers that need several writes to succeed together must
// compensate on their own.
package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	CompanyCollection   = "COMPANY"
	LoginDataCollection = "LOGIN_DATA"
	EmployeeCollection  = "EMPLOYEE"
	ProjectCollection   = "PROJECT"
	BillingCollection   = "BILLING"
	AIChatCollection    = "AI_CHAT"

	// CodeField identifies a record inside its collection.
	CodeField = "code"
	// TenantField links a dependent record to its company.
	TenantField = "tenantId"
)

var ErrNotFound = errors.New("store: record not found")

// DependentCollections hold records filtered by TenantField.
var DependentCollections = []string{
	LoginDataCollection,
	EmployeeCollection,
	BillingCollection,
	ProjectCollection,
	AIChatCollection,
}

var codePrefixes = map[string]string{
	CompanyCollection:   "C",
	LoginDataCollection: "L",
	EmployeeCollection:  "E",
	ProjectCollection:   "P",
	BillingCollection:   "B",
	AIChatCollection:    "A",
}

// RecordStore is implemented by Mongo and Memory.
type RecordStore interface {
	// Create inserts doc and returns its code, generating one when doc has none.
	Create(ctx context.Context, collection string, doc interface{}) (string, error)
	// FindOne decodes the first match into out or returns ErrNotFound.
	FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error
	// FindAll decodes every match into out, which must point to a slice.
	FindAll(ctx context.Context, collection string, filter bson.M, out interface{}) error
	// Update sets the patch fields on the record with the given code.
	Update(ctx context.Context, collection, code string, patch bson.M) error
	Delete(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// NewCode returns a fresh identifier for a record of the given collection.
func NewCode(collection string) string {
	prefix, ok := codePrefixes[collection]
	if !ok {
		prefix = "X"
	}
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// DocumentCode identifies a document sub-record inside its owner.
func DocumentCode() string {
	return "D" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// ByCode filters a single record.
func ByCode(code string) bson.M {
	return bson.M{CodeField: code}
}

// ByTenant filters every dependent record of one company.
func ByTenant(tenantID string) bson.M {
	return bson.M{TenantField: tenantID}
}

/*
* Marshal any record into a bson.M
* Assign a code when the record does not carry one
 */
func toDocument(collection string, doc interface{}) (bson.M, string, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, "", errors.Wrapf(err, "marshal %s record", collection)
	}
	m := bson.M{}
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, "", errors.Wrapf(err, "unmarshal %s record", collection)
	}
	code, _ := m[CodeField].(string)
	if strings.TrimSpace(code) == "" {
		code = NewCode(collection)
		m[CodeField] = code
	}
	return m, code, nil
}
