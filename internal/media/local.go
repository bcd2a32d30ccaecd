package media

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalStorage writes files below Root and serves them under BaseURL.
type LocalStorage struct {
	Root    string
	BaseURL string
}

func NewLocalStorage(root, baseURL string) *LocalStorage {
	return &LocalStorage{Root: root, BaseURL: baseURL}
}

func (l *LocalStorage) Save(ctx context.Context, name string, r io.Reader, contentType string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	dst := filepath.Join(l.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrap(err, "creating media directory failed")
	}

	f, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "creating media file failed")
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return errors.Wrap(err, "writing media file failed")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "writing media file failed")
	}
	return errors.Wrap(os.Rename(f.Name(), dst), "moving media file failed")
}

func (l *LocalStorage) Delete(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(l.Root, filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return nil
	}
	return errors.Wrap(err, "deleting media file failed")
}

func (l *LocalStorage) URL(name string) string {
	return l.BaseURL + name
}
