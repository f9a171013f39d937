package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/campus-showcase/showcase-backend/database"
	"github.com/campus-showcase/showcase-backend/models"
)

// userStore is the slice of the user repository the handlers consume.
// *database.UserRepo satisfies it; tests substitute in-memory fakes.
type userStore interface {
	FindAll(ctx context.Context) ([]*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByCourse(ctx context.Context, course string) ([]*models.User, error)
	Search(ctx context.Context, query string) ([]models.UserRef, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Add(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// projectStore is the slice of the project repository the handlers consume.
type projectStore interface {
	FindAll(ctx context.Context, approvedOnly bool) ([]*models.Project, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	FindByTitle(ctx context.Context, title string) ([]*models.Project, error)
	FindByCategory(ctx context.Context, category string) ([]*models.Project, error)
	FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Project, error)
	FindByContributor(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	Stats(ctx context.Context) (*database.ProjectStats, error)
	Add(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Project, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
