package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/config"
	"github.com/masterchelly/microsites/services"
)

type publicHandler struct {
	responder Responder
	logger    zerolog.Logger
	public    PublicReads
	cfg       config.AppConfig
}

func newPublicHandler(public PublicReads, cfg config.AppConfig) publicHandler {
	logger := log.With().Str("handlerName", "publicHandler").Logger()
	return publicHandler{
		responder: NewResponder(logger),
		logger:    logger,
		public:    public,
		cfg:       cfg,
	}
}

type indexResponse struct {
	RootDomain string                `json:"root_domain"`
	Projects   []services.IndexEntry `json:"projects"`
}

// index lists the published microsites on the marketing site.
func (h publicHandler) index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := h.public.Index(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if entries == nil {
			entries = []services.IndexEntry{}
		}
		h.responder.WriteJSON(w, indexResponse{RootDomain: h.cfg.RootDomain, Projects: entries})
	}
}

// microsite serves a project page reached via its subdomain, optionally
// filtered to one image tag.
func (h publicHandler) microsite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subdomain := strings.ToLower(chi.URLParam(r, "subdomain"))
		tag := strings.TrimSpace(r.URL.Query().Get("tag"))

		page, err := h.public.Page(r.Context(), subdomain, tag)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=60")
		h.responder.WriteJSON(w, page)
	}
}
