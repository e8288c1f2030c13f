// Package raster is the image decode/encode collaborator for the sheet
// pipeline. It wraps disintegration/imaging so the core never touches
// codec details: formats are picked by file extension, and every encode
// is atomic (temp file + rename) so a failed write can never leave a
// truncated file that looks like a valid output.
package raster

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/pixelmill/spritepack/pkg/errors"
)

// Decoder reads a raster file from disk.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Encoder writes an image to disk, choosing the codec by file extension.
type Encoder interface {
	Encode(img image.Image, path string) error
}

// IO combines decoding and encoding.
type IO interface {
	Decoder
	Encoder
}

// FileIO implements IO against the local filesystem.
type FileIO struct{}

// New returns a filesystem-backed raster IO.
func New() IO {
	return &FileIO{}
}

// Decode reads the image at path.
func (FileIO) Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	return img, nil
}

// Encode writes img to path atomically. The image is first encoded to a
// temporary file in the target directory and then renamed into place, so
// the output path either holds the complete image or nothing at all.
func (FileIO) Encode(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnsupported, err, "encode %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	tmpName := tmp.Name()

	if err := imaging.Encode(tmp, img, format); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	return nil
}

// Ensure FileIO implements IO.
var _ IO = FileIO{}
