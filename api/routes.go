package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers every logical path. Hosts have already been mapped
// onto these paths by the routing middleware.
func setupRoutes(r chi.Router, handlers *routeHandlers, admin adminMiddleware) {
	r.Get("/_internal/healthz", handlers.healthHandler.healthz())
	r.Get("/_internal/readyz", handlers.healthHandler.readyz())

	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		r.Get("/", handlers.publicHandler.index())
		r.Get("/s/{subdomain}", handlers.publicHandler.microsite())

		r.Get("/login", handlers.authHandler.session())
		r.Post("/login", handlers.authHandler.login())
		r.Get("/signup", handlers.authHandler.session())
		r.Post("/signup", handlers.authHandler.signup())
		r.Get("/api/logout", handlers.authHandler.logout())
		r.Post("/api/logout", handlers.authHandler.logout())

		r.Route("/admin", func(r chi.Router) {
			r.Use(admin.requireAdmin)

			r.Get("/", handlers.projectHandler.dashboard())
			r.Get("/projects/new", handlers.projectHandler.newProject())
			r.Post("/projects", handlers.projectHandler.createProject())
			r.Post("/subdomains", handlers.projectHandler.createSubdomain())
			r.Delete("/subdomains/{subdomain}", handlers.projectHandler.deleteSubdomain())

			r.Route("/projects/{projectID}", func(r chi.Router) {
				r.Get("/", handlers.projectHandler.getProject())
				r.Put("/", handlers.projectHandler.updateProject())
				r.Delete("/", handlers.projectHandler.deleteProject())
				r.Post("/publish", handlers.projectHandler.publish())

				r.Post("/images", handlers.imageHandler.upload())
				r.Put("/images/order", handlers.imageHandler.reorder())

				r.Post("/assets/url", handlers.assetHandler.createURL())
				r.Post("/assets/files", handlers.assetHandler.createFiles())
				r.Put("/assets/order", handlers.assetHandler.reorder())
			})

			r.Route("/images/{imageID}", func(r chi.Router) {
				r.Delete("/", handlers.imageHandler.deleteImage())
				r.Post("/primary", handlers.imageHandler.setPrimary())
				r.Put("/pin", handlers.imageHandler.pin())
				r.Put("/meta", handlers.imageHandler.updateMeta())
				r.Post("/tags", handlers.imageHandler.addTags())
				r.Delete("/tags/{tag}", handlers.imageHandler.removeTag())
			})

			r.Delete("/assets/{assetID}", handlers.assetHandler.deleteAsset())
		})
	})
}
