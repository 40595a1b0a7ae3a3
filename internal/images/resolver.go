// Package images resolves question image paths to public URLs. It only
// decorates questions for display; a resolver failure never blocks
// scoring, the question is just served without its image.
package images

import "github.com/examstack/examportal/internal/storage"

type Resolver interface {
	Resolve(imagePath string) (found bool, url string)
}

// BlobResolver serves images out of the blob store that also backs the
// table files.
type BlobResolver struct {
	blobs storage.BlobStore
}

func NewBlobResolver(blobs storage.BlobStore) *BlobResolver {
	return &BlobResolver{blobs: blobs}
}

func (r *BlobResolver) Resolve(imagePath string) (bool, string) {
	if imagePath == "" {
		return false, ""
	}
	key := "images/" + imagePath
	if !r.blobs.Exists(key) {
		return false, ""
	}
	u, err := r.blobs.SignedURL(key)
	if err != nil {
		return false, ""
	}
	return true, u
}
