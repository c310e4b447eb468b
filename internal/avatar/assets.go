package avatar

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"
)

var ErrAssetNotFound = errors.New("avatar asset not found")

// Asset is the raw image for a selection.
type Asset struct {
	Key         string
	Data        []byte
	ContentType string
}

// AssetSource resolves composite asset keys to image bytes.
type AssetSource interface {
	Load(key string) (*Asset, error)
}

// FSAssets looks for "<key>.png", "<key>.jpg" then "<key>.jpeg" in an fs.FS.
type FSAssets struct {
	fsys fs.FS
}

func NewFSAssets(fsys fs.FS) *FSAssets {
	return &FSAssets{fsys: fsys}
}

var assetExtensions = []string{".png", ".jpg", ".jpeg"}

func (a *FSAssets) Load(key string) (*Asset, error) {
	if key == "" || path.Base(key) != key {
		return nil, fmt.Errorf("%w: invalid key %q", ErrAssetNotFound, key)
	}
	for _, ext := range assetExtensions {
		data, err := fs.ReadFile(a.fsys, key+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read avatar asset %s: %w", key+ext, err)
		}
		return &Asset{Key: key, Data: data, ContentType: mime.TypeByExtension(ext)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
}
