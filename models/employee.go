package models

import (
	"time"

	"TenantHub/role"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const DefaultEmployeeName = "Default Admin"

type Employee struct {
	Code        string     `json:"code" bson:"code"`
	TenantId    string     `json:"tenantId" bson:"tenantId"`
	Name        string     `json:"name" bson:"name"`
	Email       string     `json:"email" bson:"email"`
	Designation string     `json:"designation,omitempty" bson:"designation,omitempty"`
	Role        role.Role  `json:"role" bson:"role"`
	Status      string     `json:"status" bson:"status"`
	Documents   []Document `json:"documents" bson:"documents"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updatedAt"`
}
