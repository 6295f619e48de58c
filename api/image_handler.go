package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/errs"
	"github.com/masterchelly/microsites/models"
	"github.com/masterchelly/microsites/services"
)

type imageHandler struct {
	responder Responder
	logger    zerolog.Logger
	images    ImageActions
	validator RequestValidator
}

func newImageHandler(images ImageActions, validator RequestValidator) imageHandler {
	logger := log.With().Str("handlerName", "imageHandler").Logger()
	return imageHandler{
		responder: NewResponder(logger),
		logger:    logger,
		images:    images,
		validator: validator,
	}
}

// uploadResponse lists what was stored. Failed is set when only some of the
// files made it; the status is then 207.
type uploadResponse[T any] struct {
	Items  []T            `json:"items"`
	Failed *ErrorResponse `json:"failed,omitempty"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

func writeUploadResult[T any](resp Responder, w http.ResponseWriter, items []T, err error) {
	if err == nil {
		resp.WriteJSONStatus(w, http.StatusCreated, uploadResponse[T]{Items: items})
		return
	}
	if len(items) == 0 || !errs.IsPartialFailureError(err) {
		resp.WriteError(w, err)
		return
	}
	_, failed := resp.describe(err)
	resp.WriteJSONStatus(w, http.StatusMultiStatus, uploadResponse[T]{Items: items, Failed: &failed})
}

func (h imageHandler) upload() http.HandlerFunc {
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

		images, err := h.images.Upload(r.Context(), projectID, files)
		writeUploadResult[*models.ProjectImage](h.responder, w, images, err)
	}
}

func (h imageHandler) deleteImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.images.Delete(r.Context(), imageID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h imageHandler) setPrimary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.images.SetPrimary(r.Context(), imageID); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h imageHandler) pin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.PinRequest
		if err := decodeBody(w, r, &req, func(values url.Values) (err error) {
			req.Rank, err = formInt(values, "rank")
			return err
		}); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.images.SetPinnedRank(r.Context(), imageID, req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h imageHandler) updateMeta() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.MetaRequest
		if err := decodeBody(w, r, &req, func(values url.Values) error {
			req.Alt = formString(values, "alt")
			req.Caption = formString(values, "caption")
			return nil
		}); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.images.UpdateMeta(r.Context(), imageID, req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h imageHandler) addTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req services.TagsRequest
		if err := decodeBody(w, r, &req, func(values url.Values) error {
			req.Tags = values.Get("tags")
			return nil
		}); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		tags, err := h.images.AddTags(r.Context(), imageID, req)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, tagsResponse{Tags: tags})
	}
}

func (h imageHandler) removeTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		imageID, err := uuidParam(r, "imageID")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
		if err != nil || tag == "" {
			h.responder.WriteError(w, errs.NewInvalidFieldError("tag", "must be a tag name"))
			return
		}

		if err := h.images.RemoveTag(r.Context(), imageID, tag); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h imageHandler) reorder() http.HandlerFunc {
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

		if err := h.images.Reorder(r.Context(), projectID, req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
