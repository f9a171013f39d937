package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-showcase/showcase-backend/models"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *UserRepo) GetDB() *gorm.DB {
	return r.db
}

// FindAll returns all users from the database
func (r *UserRepo) FindAll(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Find(&users).Error
	return users, err
}

// FindByID returns a user by its ID
func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDs returns the users matching the given ids, keyed by id. Callers that
// need resolution of every id must check the map size themselves.
func (r *UserRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	byID := make(map[uuid.UUID]*models.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	var users []*models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, user := range users {
		byID[user.ID] = user
	}
	return byID, nil
}

// FindByEmail returns the user with the given email
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByCourse returns users enrolled in the given course, exact match
func (r *UserRepo) FindByCourse(ctx context.Context, course string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Where("course = ?", course).Find(&users).Error
	return users, err
}

// Search performs a case-insensitive substring match against name or email and
// returns only the {id, name, email} projection used by autocomplete clients.
func (r *UserRepo) Search(ctx context.Context, query string) ([]models.UserRef, error) {
	refs := []models.UserRef{}
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "name", "email").
		Where("name ILIKE ? OR email ILIKE ?", pattern, pattern).
		Find(&refs).Error
	return refs, err
}

// CountByRole returns the number of users holding the given role
func (r *UserRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// Add inserts a new user into the database
func (r *UserRepo) Add(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update applies the given column values to the user with the given id and
// returns the updated document. Returns gorm.ErrRecordNotFound if no such user.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes a user from the database by id. Returns gorm.ErrRecordNotFound
// when the id does not exist, so repeated deletes surface as 404 rather than success.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
