package api

import (
	"github.com/campus-showcase/showcase-backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, jwtSecret []byte, enforceAuth bool) *routeHandlers {
	return &routeHandlers{
		userHandler:    newUserHandler(database.UserRepo(), jwtSecret, enforceAuth),
		projectHandler: newProjectHandler(database.ProjectRepo(), database.UserRepo(), enforceAuth),
	}
}
