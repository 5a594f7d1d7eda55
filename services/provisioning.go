package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"TenantHub/events"
	"TenantHub/models"
	"TenantHub/paths"
	"TenantHub/role"
	"TenantHub/store"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

type ProfileFields struct {
	Name         string          `json:"name" validate:"required"`
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=8"`
	PhoneNo      string          `json:"phoneNo"`
	Address      string          `json:"address"`
	Industry     string          `json:"industry"`
	FeatureFlags map[string]bool `json:"featureFlags"`
}

type State int

const (
	StateStart State = iota
	StateTenantCreated
	StateCredentialsCreated
	StateEmployeeBundleCreated
	StateBillingBundleCreated
	StateProjectBundleCreated
	StateChatBundleCreated
	StateCommitted
	StateRolledBack
)

var stateNames = [...]string{
	"Start",
	"TenantCreated",
	"CredentialsCreated",
	"EmployeeBundleCreated",
	"BillingBundleCreated",
	"ProjectBundleCreated",
	"ChatBundleCreated",
	"Committed",
	"RolledBack",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// compensationTimeout bounds the cleanup issued after a failed step.
const compensationTimeout = 30 * time.Second

// ProvisionError is returned when provisioning stopped before Committed.
// Unwrap yields the failure of the step; compensation problems are only
// listed in Warnings.
type ProvisionError struct {
	TenantID   string
	Step       State
	Err        error
	Warnings   []string
	RolledBack bool
}

func (e *ProvisionError) Error() string {
	msg := fmt.Sprintf("provisioning %s failed before %s: %v", e.TenantID, e.Step, e.Err)
	if len(e.Warnings) > 0 {
		msg += fmt.Sprintf(" (%d cleanup warnings)", len(e.Warnings))
	}
	return msg
}

func (e *ProvisionError) Unwrap() error { return e.Err }

var validate = validator.New()

type Provisioner struct {
	Deps
	docs *DocumentManager
}

func NewProvisioner(d Deps, docs *DocumentManager) *Provisioner {
	d = d.withDefaults()
	if docs == nil {
		docs = NewDocumentManager(d)
	}
	return &Provisioner{Deps: d, docs: docs}
}

type sagaStep struct {
	reaches    State
	collection string
	doc        interface{}
	kind       string
	entityID   string
	entityName string
}

// saga tracks one provisioning run.
type saga struct {
	p         *Provisioner
	tenantID  string
	tenantDir string
	state     State
	created   []string
	dirs      bool
}

/*
* Validate the profile and hash the password before anything is written
* Refuse an email that already owns a company
* Build the six records up front, all threaded with the tenant code
* Create them one by one, preparing the default employee and project directories first
* On any failure compensate in reverse order and return the original error
* On success cache the company, publish tenant.provisioned and return the bundle
 */
func (p *Provisioner) Provision(ctx context.Context, fields ProfileFields) (*models.Bundle, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Email = strings.ToLower(strings.TrimSpace(fields.Email))
	if err := validate.Struct(fields); err != nil {
		return nil, &Error{Kind: KindValidation, Op: "Provision", Err: err}
	}

	var existing models.Company
	err := p.Records.FindOne(ctx, store.CompanyCollection, bson.M{"email": fields.Email}, &existing)
	switch {
	case err == nil:
		return nil, validationError("Provision", "email %q already registered", fields.Email)
	case !errors.Is(err, store.ErrNotFound):
		p.Log.Error("Error from findOne while checking email", zap.Error(err))
		return nil, classify("Provision", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(fields.Password), bcrypt.DefaultCost)
	if err != nil {
		p.Log.Error("Error from hashing password", zap.Error(err))
		return nil, &Error{Kind: KindValidation, Op: "Provision", Err: err}
	}

	bundle := p.buildBundle(fields, string(hashed))
	company := bundle.Company
	s := &saga{
		p:         p,
		tenantID:  company.Code,
		tenantDir: paths.TenantDir(company.Code, company.Name),
		state:     StateStart,
	}
	log := p.Log.With(zap.String("tenantId", s.tenantID))

	steps := []sagaStep{
		{reaches: StateTenantCreated, collection: store.CompanyCollection, doc: bundle.Company},
		{reaches: StateCredentialsCreated, collection: store.LoginDataCollection, doc: bundle.Credentials},
		{reaches: StateEmployeeBundleCreated, collection: store.EmployeeCollection, doc: bundle.Employee,
			kind: paths.KindEmployee, entityID: bundle.Employee.Code, entityName: bundle.Employee.Name},
		{reaches: StateBillingBundleCreated, collection: store.BillingCollection, doc: bundle.Billing},
		{reaches: StateProjectBundleCreated, collection: store.ProjectCollection, doc: bundle.Project,
			kind: paths.KindProject, entityID: bundle.Project.Code, entityName: bundle.Project.Name},
		{reaches: StateChatBundleCreated, collection: store.AIChatCollection, doc: bundle.AIChat},
	}

	for _, step := range steps {
		if err := s.advance(ctx, company, step); err != nil {
			log.Error("Error from provisioning step", zap.Stringer("step", step.reaches), zap.Error(err))
			perr := s.compensate(ctx, step, err)
			p.Metrics.RecordProvisioning(StateRolledBack.String(), step.reaches.String())
			p.Metrics.RecordCompensationFailures(len(perr.Warnings))
			return nil, perr
		}
	}
	s.state = StateCommitted
	p.Metrics.RecordProvisioning(StateCommitted.String(), "")

	if err := p.Cache.Set(ctx, CompanyKey+s.tenantID, company); err != nil {
		log.Warn("Unable to cache company", zap.Error(err))
	}
	p.publish(ctx, events.Event{
		Type:     events.TenantProvisioned,
		TenantID: s.tenantID,
		Data: map[string]interface{}{
			"name":       company.Name,
			"employeeId": bundle.Employee.Code,
			"projectId":  bundle.Project.Code,
		},
	})
	log.Info("Company provisioned", zap.String("name", company.Name))
	return &bundle, nil
}

func (s *saga) advance(ctx context.Context, company models.Company, step sagaStep) error {
	defer s.p.Metrics.TrackStep(step.reaches.String())(time.Now())

	if step.kind != "" {
		s.dirs = true
		if _, err := s.p.docs.PrepareDir(ctx, company, step.kind, step.entityID, step.entityName); err != nil {
			return err
		}
	}
	if _, err := s.p.Records.Create(ctx, step.collection, step.doc); err != nil {
		return classify("create "+step.collection, err)
	}
	s.created = append(s.created, step.collection)
	s.state = step.reaches
	return nil
}

/*
* The failing step's collection is cleaned too since a timed out create may have landed
* Dependent collections are cleaned concurrently, each filtered by tenant
* The tenant directory goes with them
* The tenant record is deleted only after every dependent delete was attempted
* Nothing here replaces the original error
 */
func (s *saga) compensate(ctx context.Context, failed sagaStep, cause error) *ProvisionError {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	targets := append(append([]string{}, s.created...), failed.collection)
	var dependents []string
	tenant := false
	for i := len(targets) - 1; i >= 0; i-- {
		if targets[i] == store.CompanyCollection {
			tenant = true
			continue
		}
		dependents = append(dependents, targets[i])
	}

	var (
		mu       sync.Mutex
		warnings error
	)
	warn := func(err error) {
		mu.Lock()
		warnings = multierr.Append(warnings, err)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(store.DependentCollections) + 1)
	for _, coll := range dependents {
		coll := coll
		g.Go(func() error {
			if _, err := s.p.Records.Delete(gctx, coll, store.ByTenant(s.tenantID)); err != nil {
				warn(errors.Wrapf(err, "compensate %s", coll))
			}
			return nil
		})
	}
	if s.dirs {
		g.Go(func() error {
			if err := s.p.Blobs.RemoveTree(gctx, s.tenantDir); err != nil {
				warn(errors.Wrap(err, "compensate tenant directory"))
			}
			return nil
		})
	}
	_ = g.Wait()

	if tenant {
		if _, err := s.p.Records.Delete(ctx, store.CompanyCollection, store.ByCode(s.tenantID)); err != nil {
			warn(errors.Wrapf(err, "compensate %s", store.CompanyCollection))
		}
	}

	perr := &ProvisionError{TenantID: s.tenantID, Step: failed.reaches, Err: cause, RolledBack: true}
	for _, w := range multierr.Errors(warnings) {
		s.p.Log.Warn("Compensation incomplete", zap.String("tenantId", s.tenantID), zap.Error(w))
		perr.Warnings = append(perr.Warnings, w.Error())
	}
	s.state = StateRolledBack
	return perr
}

// buildBundle lays out the six records of a new company.
func (p *Provisioner) buildBundle(fields ProfileFields, hashedPassword string) models.Bundle {
	now := p.Now()
	tenantID := store.NewCode(store.CompanyCollection)
	flags := fields.FeatureFlags
	if flags == nil {
		flags = map[string]bool{}
	}

	company := models.Company{
		Code:         tenantID,
		Name:         fields.Name,
		Email:        fields.Email,
		Password:     hashedPassword,
		PhoneNo:      fields.PhoneNo,
		Address:      fields.Address,
		Industry:     fields.Industry,
		Status:       models.CompanyStatusActive,
		FeatureFlags: flags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	credentials := models.LoginData{
		Code:     store.NewCode(store.LoginDataCollection),
		TenantId: tenantID,
		Users: []models.User{{
			Name:       models.DefaultEmployeeName,
			Email:      fields.Email,
			Password:   hashedPassword,
			Role:       role.Admin,
			Privileges: role.Admin.Privileges(),
			IsActive:   true,
			CreatedAt:  now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	employee := models.Employee{
		Code:        store.NewCode(store.EmployeeCollection),
		TenantId:    tenantID,
		Name:        models.DefaultEmployeeName,
		Email:       fields.Email,
		Designation: "Administrator",
		Role:        role.Admin,
		Status:      models.StatusActive,
		Documents:   []models.Document{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	invoice := models.Invoice{
		Code:        store.DocumentCode(),
		Description: "Welcome invoice",
		IssueDate:   now,
		DueDate:     now.AddDate(0, 0, models.DefaultInvoiceDueDays),
	}
	invoice.Recalculate(now)
	billing := models.Billing{
		Code:      store.NewCode(store.BillingCollection),
		TenantId:  tenantID,
		Invoices:  []models.Invoice{invoice},
		CreatedAt: now,
		UpdatedAt: now,
	}
	day := startOfDay(now)
	project := models.Project{
		Code:        store.NewCode(store.ProjectCollection),
		TenantId:    tenantID,
		Name:        models.DefaultProjectName,
		Description: "Created with the company",
		Status:      models.StatusActive,
		StartDate:   day,
		EndDate:     day,
		Documents:   []models.Document{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	chat := models.AIChat{
		Code:     store.NewCode(store.AIChatCollection),
		TenantId: tenantID,
		Sessions: []models.ChatSession{{
			Code:  store.DocumentCode(),
			Title: "Welcome",
			Messages: []models.Message{{
				Sender:    models.SenderAI,
				Text:      models.WelcomeMessage,
				Timestamp: now,
			}},
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return models.Bundle{
		Company:     company,
		Credentials: credentials,
		Employee:    employee,
		Billing:     billing,
		Project:     project,
		AIChat:      chat,
	}
}
