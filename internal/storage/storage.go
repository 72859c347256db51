package storage

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const submissionDir = "uploads/submissions"

// PhotoStore writes accepted submission photos under the uploads directory.
// Names are random so a stored path never leaks the uploader's filename.
type PhotoStore struct {
	root string
}

func NewPhotoStore() *PhotoStore {
	return &PhotoStore{root: submissionDir}
}

func (s *PhotoStore) Save(data []byte, ext string) (string, error) {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.root, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	return "/" + path, nil
}
