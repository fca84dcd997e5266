package dedup

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/corona10/goimagehash"
)

// DHasher hashes image files on disk with a difference hash.
type DHasher struct{}

// Hash decodes the file at path and returns its encoded dHash.
func (DHasher) Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return HashImage(img)
}

// HashImage returns the encoded dHash of img.
func HashImage(img image.Image) (string, error) {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", fmt.Errorf("failed to compute dhash: %w", err)
	}
	return hash.ToString(), nil
}
