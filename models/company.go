package models

import "time"

const (
	CompanyStatusActive   = "active"
	CompanyStatusInactive = "inactive"
)

type Company struct {
	Code         string          `json:"code" bson:"code"`
	Name         string          `json:"name" bson:"name"`
	Email        string          `json:"email" bson:"email"`
	Password     string          `json:"-" bson:"password"`
	PhoneNo      string          `json:"phoneNo,omitempty" bson:"phoneNo,omitempty"`
	Address      string          `json:"address,omitempty" bson:"address,omitempty"`
	Industry     string          `json:"industry,omitempty" bson:"industry,omitempty"`
	Status       string          `json:"status" bson:"status"`
	FeatureFlags map[string]bool `json:"featureFlags" bson:"featureFlags"`
	CreatedAt    time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// Bundle is the set of records provisioned together for one company.
type Bundle struct {
	Company     Company   `json:"company"`
	Credentials LoginData `json:"credentials"`
	Employee    Employee  `json:"employee"`
	Billing     Billing   `json:"billing"`
	Project     Project   `json:"project"`
	AIChat      AIChat    `json:"aiChat"`
}
