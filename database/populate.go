package database

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/campus-showcase/showcase-backend/models"
)

// Reference resolution joins projects against their referenced users the way a
// document store populate would: one batched user query, then an in-memory
// merge. A dangling reference fails the whole population rather than returning
// a partially joined document.

// CollectUserIDs gathers the distinct user ids referenced by the given projects.
func CollectUserIDs(projects []*models.Project) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, project := range projects {
		add(project.Creator)
		for _, contributor := range project.Contributors {
			add(contributor)
		}
	}
	return ids
}

// MergeProjectUsers joins projects against the fetched users. Every referenced
// id must be present in usersByID; contributor order is preserved.
func MergeProjectUsers(projects []*models.Project, usersByID map[uuid.UUID]*models.User) ([]models.PopulatedProject, error) {
	populated := make([]models.PopulatedProject, 0, len(projects))
	for _, project := range projects {
		creator, ok := usersByID[project.Creator]
		if !ok {
			return nil, fmt.Errorf("creator %s referenced by project %s does not exist", project.Creator, project.ID)
		}

		contributors := make([]models.UserRef, 0, len(project.Contributors))
		for _, contributorID := range project.Contributors {
			contributor, ok := usersByID[contributorID]
			if !ok {
				return nil, fmt.Errorf("contributor %s referenced by project %s does not exist", contributorID, project.ID)
			}
			contributors = append(contributors, contributor.Ref())
		}

		populated = append(populated, models.PopulatedProject{
			ID:               project.ID,
			Title:            project.Title,
			Description:      project.Description,
			IsApproved:       project.IsApproved,
			Abstract:         project.Abstract,
			Contributors:     contributors,
			TechnologiesUsed: project.TechnologiesUsed,
			Tags:             project.Tags,
			Creator:          creator.Ref(),
			SourceCodeURL:    project.SourceCodeURL,
			ThumbnailURL:     project.ThumbnailURL,
			GalleryImageURLs: project.GalleryImageURLs,
			Categories:       project.Categories,
			AcademicYear:     project.AcademicYear,
			Status:           project.Status,
			CreatedAt:        project.CreatedAt,
			UpdatedAt:        project.UpdatedAt,
		})
	}
	return populated, nil
}
