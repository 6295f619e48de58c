package api

import (
	"time"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Deps, startupTime time.Time) *routeHandlers {
	cfg := deps.Config
	return &routeHandlers{
		publicHandler:  newPublicHandler(deps.Public, cfg),
		authHandler:    newAuthHandler(deps.Auth, deps.Verifier, deps.Gate, deps.Validator, deps.cookies(), cfg),
		projectHandler: newProjectHandler(deps.Projects, deps.Validator, cfg),
		imageHandler:   newImageHandler(deps.Images, deps.Validator),
		assetHandler:   newAssetHandler(deps.Assets, deps.Validator),
		healthHandler:  newHealthHandler(startupTime, deps.Checks),
	}
}
