package Payments

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"FuelDoor/Models"

	"github.com/disintegration/imaging"
)

// EvidenceStore keeps payment screenshots on local disk under deterministic
// keys. The directory is mounted as a static route, so the returned URL is
// retrievable by the operator dashboard.
type EvidenceStore struct {
	Dir        string
	PublicBase string
}

func NewEvidenceStore(dir, publicBase string) (*EvidenceStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &EvidenceStore{Dir: dir, PublicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Save writes the screenshot under key and a dashboard thumbnail next to it,
// returning the public URL. The upload is rejected when the payload does not
// decode as an image, whatever its extension claims.
func (s *EvidenceStore) Save(key string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxScreenshotBytes+1))
	if err != nil {
		return "", Models.NewConnectivityError("Failed to read screenshot upload", err)
	}
	if int64(len(data)) > MaxScreenshotBytes {
		return "", Models.NewValidationError("File size exceeds maximum allowed size of 5MB")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", Models.NewValidationError("Uploaded file is not a readable image")
	}

	path := filepath.Join(s.Dir, key)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", Models.NewConnectivityError("Failed to store screenshot", err)
	}

	// A failed thumbnail never blocks the upload; the dashboard falls back
	// to the full image.
	thumb := imaging.Fit(img, 400, 300, imaging.Lanczos)
	_ = imaging.Save(thumb, filepath.Join(s.Dir, "thumb_"+key))

	return s.PublicBase + "/" + key, nil
}

// ThumbnailURL returns the dashboard-sized rendition for a stored key.
func (s *EvidenceStore) ThumbnailURL(key string) string {
	return s.PublicBase + "/thumb_" + key
}
