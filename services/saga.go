package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/masterchelly/microsites/database"
	"github.com/masterchelly/microsites/errs"
)

// UploadFile is one file taken from a multipart request.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// PositionRequest places one row.
type PositionRequest struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Position int       `json:"position"`
}

type ReorderRequest struct {
	Ordered []PositionRequest `json:"ordered" validate:"required,min=1,dive"`
}

// blobSaga keeps an object and the row that points at it consistent across
// the two stores, compensating where it can and reporting where it cannot.
type blobSaga struct {
	objects  ObjectStore
	notifier Notifier
	logger   zerolog.Logger
}

// create uploads the object and then runs insert. When insert fails the object
// is removed again; if that fails too the object is orphaned.
func (s blobSaga) create(ctx context.Context, bucket, key string, data []byte, contentType, cacheControl, entity string, insert func() error) error {
	if err := s.objects.Upload(ctx, bucket, key, data, contentType, cacheControl); err != nil {
		return errs.NewStorageError("upload", err)
	}

	insertErr := insert()
	if insertErr == nil {
		return nil
	}

	rmErr := s.objects.Remove(context.WithoutCancel(ctx), bucket, []string{key})
	if rmErr == nil {
		s.logger.Warn().Err(insertErr).Str("bucket", bucket).Str("key", key).Msg("insert failed, uploaded object removed")
		return errs.NewDatabaseError("create", entity, insertErr)
	}

	s.logger.Error().Err(insertErr).AnErr("removeErr", rmErr).Str("bucket", bucket).Str("key", key).Msg("orphaned object")
	notify(ctx, s.notifier, s.logger, "Orphaned storage object",
		fmt.Sprintf("Object %s/%s was uploaded but its %s row was not recorded and removal failed.\ninsert: %v\nremove: %v",
			bucket, key, entity, insertErr, rmErr))
	return errs.NewOrphanedBlobError(bucket, key, errors.Join(insertErr, rmErr))
}

// destroy removes the object first and then the row. An empty key skips the
// storage step.
func (s blobSaga) destroy(ctx context.Context, bucket, key, entity string, id uuid.UUID, del func() error) error {
	if key != "" {
		if err := s.objects.Remove(ctx, bucket, []string{key}); err != nil {
			return errs.NewStorageError("remove", err)
		}
	}

	err := del()
	if err == nil {
		return nil
	}
	if key == "" {
		return errs.NewDatabaseError("delete", entity, err)
	}

	s.logger.Error().Err(err).Str("entity", entity).Str("id", id.String()).Str("key", key).Msg("orphaned row")
	notify(ctx, s.notifier, s.logger, "Orphaned "+entity+" row",
		fmt.Sprintf("The %s row %s still points at %s/%s, which was already removed: %v", entity, id, bucket, key, err))
	return errs.NewOrphanedRowError(entity, id.String(), err)
}

// checkOwnership fails with code unless every id exists and belongs to
// projectID. Positions are clamped at zero.
func checkOwnership(ctx context.Context, owners func(context.Context, []uuid.UUID) (map[uuid.UUID]uuid.UUID, error),
	projectID uuid.UUID, req ReorderRequest, code string) ([]database.Position, error) {
	if len(req.Ordered) == 0 {
		return nil, errs.NewValidationError("ordered", "NO_ORDER")
	}

	ids := make([]uuid.UUID, 0, len(req.Ordered))
	positions := make([]database.Position, 0, len(req.Ordered))
	for _, o := range req.Ordered {
		ids = append(ids, o.ID)
		positions = append(positions, database.Position{ID: o.ID, Position: max(0, o.Position)})
	}

	owned, err := owners(ctx, ids)
	if err != nil {
		return nil, errs.NewDatabaseError("load", "owners", err)
	}
	for _, id := range ids {
		if pid, ok := owned[id]; !ok || pid != projectID {
			return nil, errs.NewProjectMismatchError(code)
		}
	}
	return positions, nil
}
