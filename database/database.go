package database

import (
	"gorm.io/gorm"

	"github.com/campus-showcase/showcase-backend/models"
)

type Database struct {
	userRepo    *UserRepo
	projectRepo *ProjectRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		userRepo:    NewUserRepo(db),
		projectRepo: NewProjectRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

// AutoMigrate creates or updates the users and projects tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Project{})
}
