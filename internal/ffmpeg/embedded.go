//go:build ffmpeg_embedded

package ffmpeg

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"path"
)

// release archives copied into assets/ before building with
// -tags ffmpeg_embedded
//
//go:embed assets/*
var bundledArchives embed.FS

func openEmbeddedAsset(name string) (io.ReadCloser, bool, error) {
	file, err := bundledArchives.Open(path.Join("assets", name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return file, true, nil
}
