package models

import "time"

const DefaultProjectName = "Default Project"

type Project struct {
	Code        string     `json:"code" bson:"code"`
	TenantId    string     `json:"tenantId" bson:"tenantId"`
	Name        string     `json:"name" bson:"name"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	Status      string     `json:"status" bson:"status"`
	StartDate   time.Time  `json:"startDate" bson:"startDate"`
	EndDate     time.Time  `json:"endDate" bson:"endDate"`
	Documents   []Document `json:"documents" bson:"documents"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// DocumentOwner is the shape shared by every record that owns documents.
type DocumentOwner struct {
	Code      string     `bson:"code"`
	TenantId  string     `bson:"tenantId"`
	Name      string     `bson:"name"`
	Status    string     `bson:"status"`
	Documents []Document `bson:"documents"`
}
