package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campus-showcase/showcase-backend/models"
)

type ProjectRepo struct {
	db *gorm.DB
}

func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *ProjectRepo) GetDB() *gorm.DB {
	return r.db
}

// FindAll returns projects from the database, optionally restricted to approved ones
func (r *ProjectRepo) FindAll(ctx context.Context, approvedOnly bool) ([]*models.Project, error) {
	var projects []*models.Project
	tx := r.db.WithContext(ctx)
	if approvedOnly {
		tx = tx.Where("is_approved = ?", true)
	}
	err := tx.Find(&projects).Error
	return projects, err
}

// FindByID returns a project by its ID
func (r *ProjectRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByTitle returns projects whose title matches exactly
func (r *ProjectRepo) FindByTitle(ctx context.Context, title string) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).Where("title = ?", title).Find(&projects).Error
	return projects, err
}

// FindByCategory returns projects whose categories array contains the given value.
// No approval filter: the catalog browse page applies its own.
func (r *ProjectRepo) FindByCategory(ctx context.Context, category string) ([]*models.Project, error) {
	element, err := json.Marshal([]string{category})
	if err != nil {
		return nil, err
	}
	var projects []*models.Project
	err = r.db.WithContext(ctx).
		Where("categories @> ?::jsonb", string(element)).
		Find(&projects).Error
	return projects, err
}

// FindByCreator returns projects created by the given user
func (r *ProjectRepo) FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).Where("creator = ?", creatorID).Find(&projects).Error
	return projects, err
}

// FindByContributor returns projects whose contributors array contains the given user id
func (r *ProjectRepo) FindByContributor(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	element, err := json.Marshal([]uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	var projects []*models.Project
	err = r.db.WithContext(ctx).
		Where("contributors @> ?::jsonb", string(element)).
		Find(&projects).Error
	return projects, err
}

// ProjectStats holds the dashboard aggregates over approved projects.
type ProjectStats struct {
	TotalProjects   int64 `json:"totalProjects"`
	CategoriesCount int   `json:"categoriesCount"`
}

// Stats computes the approved-project count and the number of distinct category
// values across approved projects. The two queries run concurrently.
func (r *ProjectRepo) Stats(ctx context.Context) (*ProjectStats, error) {
	var stats ProjectStats

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.db.WithContext(gctx).
			Model(&models.Project{}).
			Where("is_approved = ?", true).
			Count(&stats.TotalProjects).Error
	})

	g.Go(func() error {
		var categoryLists []datatypes.JSONSlice[string]
		err := r.db.WithContext(gctx).
			Model(&models.Project{}).
			Where("is_approved = ?", true).
			Pluck("categories", &categoryLists).Error
		if err != nil {
			return err
		}
		distinct := make(map[string]struct{})
		for _, list := range categoryLists {
			for _, category := range list {
				distinct[category] = struct{}{}
			}
		}
		stats.CategoriesCount = len(distinct)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Add inserts a new project into the database
func (r *ProjectRepo) Add(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// Update applies the given column values to the project with the given id and
// returns the updated document. Returns gorm.ErrRecordNotFound if no such project.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Project, error) {
	result := r.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a project from the database by id. Returns gorm.ErrRecordNotFound
// when the id does not exist; the second of two identical deletes reports 404.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
