package api

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/campus-showcase/showcase-backend/database"
	"github.com/campus-showcase/showcase-backend/models"
)

type (
	datatypesJSONSliceUUID   = datatypes.JSONSlice[uuid.UUID]
	datatypesJSONSliceString = datatypes.JSONSlice[string]
)

// In-memory stand-ins for the repositories. Insertion order is preserved so
// list responses are deterministic.

// newTestRouter wires the real routes against fake stores.
func newTestRouter(users *fakeUserStore, projects *fakeProjectStore, secret []byte, enforce bool) *chi.Mux {
	handlers := &routeHandlers{
		userHandler:    newUserHandler(users, secret, enforce),
		projectHandler: newProjectHandler(projects, users, enforce),
	}
	r := chi.NewRouter()
	setupRoutes(r, handlers, newAuthMiddleware(secret, enforce))
	return r
}

type fakeUserStore struct {
	mu    sync.Mutex
	users []*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{}
}

func (s *fakeUserStore) FindAll(ctx context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *fakeUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID := make(map[uuid.UUID]*models.User, len(ids))
	for _, id := range ids {
		for _, user := range s.users {
			if user.ID == id {
				copied := *user
				byID[id] = &copied
			}
		}
	}
	return byID, nil
}

func (s *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) FindByCourse(ctx context.Context, course string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, user := range s.users {
		if user.Course == course {
			copied := *user
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeUserStore) Search(ctx context.Context, query string) ([]models.UserRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(query)
	var refs []models.UserRef
	for _, user := range s.users {
		if strings.Contains(strings.ToLower(user.Name), needle) ||
			strings.Contains(strings.ToLower(user.Email), needle) {
			refs = append(refs, user.Ref())
		}
	}
	return refs, nil
}

func (s *fakeUserStore) CountByRole(ctx context.Context, role string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, user := range s.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *fakeUserStore) Add(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		}
	}
	copied := *user
	s.users = append(s.users, &copied)
	return nil
}

func (s *fakeUserStore) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.ID != id {
			continue
		}
		if v, ok := updates["name"]; ok {
			user.Name = v.(string)
		}
		if v, ok := updates["email"]; ok {
			user.Email = v.(string)
		}
		if v, ok := updates["password"]; ok {
			user.Password = v.(string)
		}
		if v, ok := updates["roll_no"]; ok {
			rollNo := v.(int)
			user.RollNo = &rollNo
		}
		if v, ok := updates["course"]; ok {
			user.Course = v.(string)
		}
		if v, ok := updates["year"]; ok {
			year := v.(int)
			user.Year = &year
		}
		if v, ok := updates["role"]; ok {
			user.Role = v.(string)
		}
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, user := range s.users {
		if user.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeProjectStore struct {
	mu       sync.Mutex
	projects []*models.Project
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{}
}

func (s *fakeProjectStore) FindAll(ctx context.Context, approvedOnly bool) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, project := range s.projects {
		if approvedOnly && !project.IsApproved {
			continue
		}
		copied := *project
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeProjectStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, project := range s.projects {
		if project.ID == id {
			copied := *project
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeProjectStore) FindByTitle(ctx context.Context, title string) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, project := range s.projects {
		if project.Title == title {
			copied := *project
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeProjectStore) FindByCategory(ctx context.Context, category string) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, project := range s.projects {
		for _, c := range project.Categories {
			if c == category {
				copied := *project
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeProjectStore) FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, project := range s.projects {
		if project.Creator == creatorID {
			copied := *project
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *fakeProjectStore) FindByContributor(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Project
	for _, project := range s.projects {
		for _, contributor := range project.Contributors {
			if contributor == userID {
				copied := *project
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeProjectStore) Stats(ctx context.Context) (*database.ProjectStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := database.ProjectStats{}
	distinct := make(map[string]struct{})
	for _, project := range s.projects {
		if !project.IsApproved {
			continue
		}
		stats.TotalProjects++
		for _, category := range project.Categories {
			distinct[category] = struct{}{}
		}
	}
	stats.CategoriesCount = len(distinct)
	return &stats, nil
}

func (s *fakeProjectStore) Add(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *project
	s.projects = append(s.projects, &copied)
	return nil
}

func (s *fakeProjectStore) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, project := range s.projects {
		if project.ID != id {
			continue
		}
		applyProjectUpdate(project, updates)
		copied := *project
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func applyProjectUpdate(project *models.Project, updates map[string]any) {
	for column, value := range updates {
		switch column {
		case "title":
			project.Title = value.(string)
		case "description":
			project.Description = value.(string)
		case "is_approved":
			project.IsApproved = value.(bool)
		case "abstract":
			project.Abstract = value.(string)
		case "contributors":
			project.Contributors = value.(datatypesJSONSliceUUID)
		case "technologies_used":
			project.TechnologiesUsed = value.(datatypesJSONSliceString)
		case "tags":
			project.Tags = value.(datatypesJSONSliceString)
		case "creator":
			project.Creator = value.(uuid.UUID)
		case "source_code_url":
			project.SourceCodeURL = value.(string)
		case "thumbnail_url":
			project.ThumbnailURL = value.(string)
		case "gallery_image_urls":
			project.GalleryImageURLs = value.(datatypesJSONSliceString)
		case "categories":
			project.Categories = value.(datatypesJSONSliceString)
		case "academic_year":
			project.AcademicYear = value.(string)
		case "status":
			project.Status = value.(string)
		}
	}
}

func (s *fakeProjectStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, project := range s.projects {
		if project.ID == id {
			s.projects = append(s.projects[:i], s.projects[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
