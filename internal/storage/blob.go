package storage

import "io"

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Exists(key string) bool
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
