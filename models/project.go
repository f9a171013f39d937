package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project status values. Free-form transitions: any status may move to any other.
const (
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
	StatusArchived  = "Archived"
)

// DefaultThumbnailURL is applied when a submission carries no thumbnail.
const DefaultThumbnailURL = "/images/default-project-thumbnail.png"

// Project represents a submitted showcase project. List-valued fields are stored
// as JSONB columns so array containment queries stay cheap and the contributor
// ordering submitted by the client is preserved.
type Project struct {
	ID               uuid.UUID                      `json:"id" db:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid();not null"`
	Title            string                         `json:"title" db:"title" gorm:"type:text;not null"`
	Description      string                         `json:"description" db:"description" gorm:"type:text;not null"`
	IsApproved       bool                           `json:"isApproved" db:"is_approved" gorm:"type:boolean;not null;default:false"`
	Abstract         string                         `json:"abstract,omitempty" db:"abstract" gorm:"type:text"`
	Contributors     datatypes.JSONSlice[uuid.UUID] `json:"contributors" db:"contributors" gorm:"not null"`
	TechnologiesUsed datatypes.JSONSlice[string]    `json:"technologiesUsed" db:"technologies_used"`
	Tags             datatypes.JSONSlice[string]    `json:"tags" db:"tags"`
	Creator          uuid.UUID                      `json:"creator" db:"creator" gorm:"type:uuid;not null;index"`
	SourceCodeURL    string                         `json:"sourceCodeUrl,omitempty" db:"source_code_url" gorm:"type:text"`
	ThumbnailURL     string                         `json:"thumbnailUrl" db:"thumbnail_url" gorm:"type:text"`
	GalleryImageURLs datatypes.JSONSlice[string]    `json:"galleryImageUrls" db:"gallery_image_urls"`
	Categories       datatypes.JSONSlice[string]    `json:"categories" db:"categories" gorm:"not null"`
	AcademicYear     string                         `json:"academicYear,omitempty" db:"academic_year" gorm:"type:text"`
	Status           string                         `json:"status" db:"status" gorm:"type:text;not null;default:'Ongoing'"`
	CreatedAt        time.Time                      `json:"createdAt" db:"created_at" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time                      `json:"updatedAt" db:"updated_at" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}

// PopulatedProject is a project with its user references resolved at read time
// into embedded {id, name, email} documents. Never persisted.
type PopulatedProject struct {
	ID               uuid.UUID                   `json:"id"`
	Title            string                      `json:"title"`
	Description      string                      `json:"description"`
	IsApproved       bool                        `json:"isApproved"`
	Abstract         string                      `json:"abstract,omitempty"`
	Contributors     []UserRef                   `json:"contributors"`
	TechnologiesUsed datatypes.JSONSlice[string] `json:"technologiesUsed"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	Creator          UserRef                     `json:"creator"`
	SourceCodeURL    string                      `json:"sourceCodeUrl,omitempty"`
	ThumbnailURL     string                      `json:"thumbnailUrl"`
	GalleryImageURLs datatypes.JSONSlice[string] `json:"galleryImageUrls"`
	Categories       datatypes.JSONSlice[string] `json:"categories"`
	AcademicYear     string                      `json:"academicYear,omitempty"`
	Status           string                      `json:"status"`
	CreatedAt        time.Time                   `json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}
