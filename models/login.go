package models

import (
	"time"

	"TenantHub/role"
)

// LoginData is the single credential set of a company.
type LoginData struct {
	Code      string    `json:"code" bson:"code"`
	TenantId  string    `json:"tenantId" bson:"tenantId"`
	Users     []User    `json:"users" bson:"users"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type User struct {
	Name       string           `json:"name" bson:"name"`
	Email      string           `json:"email" bson:"email"`
	Password   string           `json:"-" bson:"password"`
	Role       role.Role        `json:"role" bson:"role"`
	Privileges []role.Privilege `json:"privileges" bson:"privileges"`
	IsActive   bool             `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time        `json:"createdAt" bson:"createdAt"`
}
