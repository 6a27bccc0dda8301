package flows

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/backend"
)

// ImageAttachment is an optional file attached to a submission.
type ImageAttachment struct {
	Reader      io.Reader
	Filename    string
	Size        int64
	ContentType string
}

// UploadImage stores an attached file in the blob store under a key
// namespaced by the owner and returns its public URL. A nil attachment
// means "no image" and returns ("", nil), not an error. An upload
// failure aborts the caller's submission before any record insert.
func UploadImage(ctx context.Context, blobs backend.Blobs, image *ImageAttachment, userID string) (string, error) {
	if image == nil || image.Reader == nil {
		return "", nil
	}

	ext := filepath.Ext(image.Filename)
	key := fmt.Sprintf("%s/%s%s", userID, uuid.New().String(), ext)

	if err := blobs.Upload(ctx, key, image.Reader, image.Size, image.ContentType); err != nil {
		return "", fmt.Errorf("%w: %v", backend.ErrUploadFailure, err)
	}

	publicURL := blobs.PublicURL(key)

	log.Info().
		Str("filename", image.Filename).
		Str("key", key).
		Str("url", publicURL).
		Msg("Image uploaded successfully")

	return publicURL, nil
}
