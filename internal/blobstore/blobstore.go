package blobstore

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store persists uploaded evidence images and profile pictures and hands back
// publicly servable URLs.
type Store interface {
	Save(key string, r io.Reader) (string, error)
	Delete(key string) error
	DeletePrefix(prefix string) error
	URLKey(publicURL string) (string, bool)
}

// DiskStore keeps blobs under a local directory; the HTTP server exposes the
// directory at baseURL. Earlier deployments pushed the same keys to a cloud
// bucket, the key layout is compatible.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}

	return &DiskStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

func (s *DiskStore) Save(key string, r io.Reader) (string, error) {
	key = cleanKey(key)

	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dst)
		return "", err
	}

	return s.baseURL + "/" + key, nil
}

func (s *DiskStore) Delete(key string) error {
	key = cleanKey(key)
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *DiskStore) DeletePrefix(prefix string) error {
	prefix = cleanKey(prefix)
	if prefix == "" || prefix == "." {
		return fmt.Errorf("blobstore: refusing to delete empty prefix")
	}
	return os.RemoveAll(filepath.Join(s.root, filepath.FromSlash(prefix)))
}

// URLKey maps a previously returned public URL back to a storage key, so a
// superseded blob can be deleted given only the URL persisted with the record.
func (s *DiskStore) URLKey(publicURL string) (string, bool) {
	u, err := url.Parse(publicURL)
	if err != nil {
		return "", false
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return "", false
	}

	key, found := strings.CutPrefix(path.Clean(u.Path), path.Clean(base.Path)+"/")
	if !found || key == "" {
		return "", false
	}

	return key, true
}

// Root returns the directory blobs live in, for static file serving.
func (s *DiskStore) Root() string {
	return s.root
}

func cleanKey(key string) string {
	key = path.Clean("/" + key)
	return strings.TrimPrefix(key, "/")
}
