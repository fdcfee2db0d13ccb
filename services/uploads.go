package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/storage"
)

const maxImageBytes = 5 << 20

func validateImage(body []byte, contentType string) error {
	if !strings.HasPrefix(contentType, "image/") {
		return apperr.Invalid("photo must be an image")
	}
	if len(body) > maxImageBytes {
		return apperr.Invalid("photo is larger than 5MB")
	}
	return nil
}

// withUpload stores body under key and then runs fn with its public URL. If
// fn fails the object is deleted again; if that delete fails too the caller
// gets a PartialWriteError naming the orphaned object.
func withUpload(ctx context.Context, st storage.ObjectStorage, op, key string, body []byte, contentType string, fn func(url string) error) error {
	url, err := st.Save(ctx, key, body, contentType)
	if err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}

	if err := fn(url); err != nil {
		if delErr := st.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			partialWrites.WithLabelValues(op).Inc()
			log.Error().Err(err).AnErr("cleanup_error", delErr).Str("op", op).Str("key", key).
				Msg("partial write: uploaded object could not be removed")
			return &apperr.PartialWriteError{
				Op:        op,
				Completed: []string{"upload " + key},
				Failed:    "database update",
				Err:       errors.Join(err, delErr),
			}
		}
		return err
	}
	return nil
}
