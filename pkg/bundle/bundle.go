// Package bundle packs composed sheets and their descriptors into a
// single resource file a game can ship and open at load time. The file
// is a bbolt database with one bucket per artifact kind, keyed by sheet
// name.
package bundle

import (
	"bytes"
	"encoding/json"
	"image/png"

	bolt "go.etcd.io/bbolt"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

var (
	bucketSheets      = []byte("spritesheets")
	bucketDescriptors = []byte("descriptors")
)

// Bundle is an open resource file.
type Bundle struct {
	db *bolt.DB
}

// Open opens or creates the resource file at path.
func Open(path string) (*Bundle, error) {
	if err := errors.ValidateOutputPath(path); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o666, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOutputWrite, err, "open bundle %s", path)
	}
	return &Bundle{db: db}, nil
}

// Close closes the resource file.
func (b *Bundle) Close() error {
	return b.db.Close()
}

// Put stores a composed sheet under name. The texture goes in as PNG
// bytes, the descriptor as JSON; both land in one transaction so the
// bundle never holds a texture without its layout.
func (b *Bundle) Put(name string, s *sheet.SpriteSheet) error {
	if err := errors.ValidateAnimationName(name); err != nil {
		return err
	}

	var texture bytes.Buffer
	if err := png.Encode(&texture, s.Canvas); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode sheet %s", name)
	}
	descriptor, err := json.Marshal(s.Descriptor)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal descriptor %s", name)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		sheets, err := tx.CreateBucketIfNotExists(bucketSheets)
		if err != nil {
			return err
		}
		if err := sheets.Put([]byte(name), texture.Bytes()); err != nil {
			return err
		}
		descriptors, err := tx.CreateBucketIfNotExists(bucketDescriptors)
		if err != nil {
			return err
		}
		return descriptors.Put([]byte(name), descriptor)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "store sheet %s", name)
	}
	return nil
}

// Get loads the sheet stored under name.
func (b *Bundle) Get(name string) (*sheet.SpriteSheet, error) {
	var textureBytes, descriptorBytes []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		sheets := tx.Bucket(bucketSheets)
		descriptors := tx.Bucket(bucketDescriptors)
		if sheets == nil || descriptors == nil {
			return errors.New(errors.ErrCodeNotFound, "sheet %s not found in bundle", name)
		}
		t := sheets.Get([]byte(name))
		d := descriptors.Get([]byte(name))
		if t == nil || d == nil {
			return errors.New(errors.ErrCodeNotFound, "sheet %s not found in bundle", name)
		}
		// Bucket slices are only valid inside the transaction.
		textureBytes = append([]byte(nil), t...)
		descriptorBytes = append([]byte(nil), d...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(textureBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode sheet %s", name)
	}
	var descriptor sheet.Descriptor
	if err := json.Unmarshal(descriptorBytes, &descriptor); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "unmarshal descriptor %s", name)
	}

	return &sheet.SpriteSheet{Canvas: sheet.CanvasFromImage(img), Descriptor: &descriptor}, nil
}

// Delete removes the sheet stored under name. Deleting an absent sheet
// is not an error.
func (b *Bundle) Delete(name string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if sheets := tx.Bucket(bucketSheets); sheets != nil {
			if err := sheets.Delete([]byte(name)); err != nil {
				return err
			}
		}
		if descriptors := tx.Bucket(bucketDescriptors); descriptors != nil {
			return descriptors.Delete([]byte(name))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "delete sheet %s", name)
	}
	return nil
}

// List returns the names of all stored sheets in key order.
func (b *Bundle) List() ([]string, error) {
	var names []string
	err := b.db.View(func(tx *bolt.Tx) error {
		sheets := tx.Bucket(bucketSheets)
		if sheets == nil {
			return nil
		}
		return sheets.ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list bundle")
	}
	return names, nil
}
