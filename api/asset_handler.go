package api

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
)

type assetHandler struct {
	responder Responder
	logger    zerolog.Logger
	assets    AssetActions
	validator RequestValidator
}

func newAssetHandler(assets AssetActions, validator RequestValidator) assetHandler {
	logger := log.With().Str("handlerName", "assetHandler").Logger()
	return assetHandler{
		responder: NewResponder(logger),
		logger:    logger,
		assets:    assets,
		validator: validator,
	}
}

func fillMeta(meta *services.AssetMeta, values url.Values) (err error) {
	meta.Title = formString(values, "title")
	meta.Description = formString(values, "description")
	meta.Position, err = formInt(values, "position")
	return err
}

// createURL adds a video or tour by link.
func (h assetHandler) createURL() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.URLAssetRequest
		if err := decodeBody(w, r, &req, func(values url.Values) error {
			req.Kind = values.Get("kind")
			req.URL = values.Get("url")
			return fillMeta(&req.AssetMeta, values)
		}); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		asset, err := h.assets.CreateURL(r.Context(), projectID, req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSONStatus(w, http.StatusCreated, asset)
	}
}

// createFiles stores pdf or floorplan uploads. Kind and meta come from the
// same multipart form.
func (h assetHandler) createFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		files, err := uploadedFiles(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.FileAssetRequest
		req.Kind = r.FormValue("kind")
		if err := fillMeta(&req.AssetMeta, r.MultipartForm.Value); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		assets, err := h.assets.CreateFiles(r.Context(), projectID, req, files)
		writeUploadResult[*models.ProjectAsset](h.responder, w, assets, err)
	}
}

func (h assetHandler) deleteAsset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assetID, err := uuidParam(r, "assetID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.assets.Delete(r.Context(), assetID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h assetHandler) reorder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.ReorderRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.assets.Reorder(r.Context(), projectID, req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
