package models

import "time"

// Document points at one stored file. Path is always the location after the
// file was committed out of staging.
type Document struct {
	Code       string    `json:"code" bson:"code"`
	Name       string    `json:"name" bson:"name"`
	Path       string    `json:"path" bson:"path"`
	Size       int64     `json:"size" bson:"size"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}
