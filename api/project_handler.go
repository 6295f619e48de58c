package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
)

type projectHandler struct {
	responder Responder
	logger    zerolog.Logger
	projects  ProjectActions
	validator RequestValidator
	cfg       config.AppConfig
}

func newProjectHandler(projects ProjectActions, validator RequestValidator, cfg config.AppConfig) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()
	return projectHandler{
		responder: NewResponder(logger),
		logger:    logger,
		projects:  projects,
		validator: validator,
		cfg:       cfg,
	}
}

type dashboardResponse struct {
	Projects   []*models.Project `json:"projects"`
	RootDomain string            `json:"root_domain"`
	Protocol   string            `json:"protocol"`
}

type newProjectResponse struct {
	RootDomain   string   `json:"root_domain"`
	Protocol     string   `json:"protocol"`
	Reserved     []string `json:"reserved"`
	DefaultEmoji string   `json:"default_emoji"`
}

type publishResponse struct {
	Published bool `json:"published"`
}

// dashboard lists every project, newest first.
func (h projectHandler) dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := h.projects.ListProjects(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if projects == nil {
			projects = []*models.Project{}
		}
		h.responder.WriteJSON(w, dashboardResponse{
			Projects:   projects,
			RootDomain: h.cfg.RootDomain,
			Protocol:   h.cfg.Protocol,
		})
	}
}

// newProject describes what the creation form needs to know.
func (h projectHandler) newProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, newProjectResponse{
			RootDomain:   h.cfg.RootDomain,
			Protocol:     h.cfg.Protocol,
			Reserved:     h.cfg.ReservedSubdomains,
			DefaultEmoji: models.DefaultEmoji,
		})
	}
}

func (h projectHandler) createSubdomain() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req services.CreateSubdomainRequest
		fill := func(values url.Values) error {
			req.Subdomain = values.Get("subdomain")
			req.Icon = values.Get("icon")
			return nil
		}
		if err := decodeBody(w, r, &req, fill); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		created, err := h.projects.CreateSubdomain(r.Context(), req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, created)
	}
}

func (h projectHandler) deleteSubdomain() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := url.PathUnescape(chi.URLParam(r, "subdomain"))
		if err != nil {
			raw = chi.URLParam(r, "subdomain")
		}
		if err := h.projects.DeleteSubdomain(r.Context(), raw); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := h.decodeSave(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req.ID = nil

		project, err := h.projects.SaveProject(r.Context(), req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, project)
	}
}

func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		project, err := h.projects.GetProjectDetail(r.Context(), projectID)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req, err := h.decodeSave(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		req.ID = &projectID

		project, err := h.projects.SaveProject(r.Context(), req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, project)
	}
}

func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.projects.DeleteProject(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h projectHandler) publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.PublishRequest
		fill := func(values url.Values) (err error) {
			req.Published, err = formBool(values, "published")
			return err
		}
		if err := decodeBody(w, r, &req, fill); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.projects.SetPublished(r.Context(), projectID, *req.Published); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, publishResponse{Published: *req.Published})
	}
}

func (h projectHandler) decodeSave(w http.ResponseWriter, r *http.Request) (services.SaveProjectRequest, error) {
	var req services.SaveProjectRequest
	fill := func(values url.Values) error {
		req.Name = values.Get("name")
		req.Slug = values.Get("slug")
		req.Headline = formString(values, "headline")
		req.Description = formString(values, "description")
		req.HeroURL = formString(values, "hero_url")
		req.Icon = formString(values, "icon")
		published, err := formBool(values, "published")
		if published != nil {
			req.Published = *published
		}
		return err
	}
	if err := decodeBody(w, r, &req, fill); err != nil {
		return req, err
	}
	return req, h.validator.Struct(req)
}
