package domain

import "context"

// ImageResolver maps a corpus image name (without extension) to a
// fetchable URL.
type ImageResolver interface {
	Resolve(ctx context.Context, imageName string) (string, error)
}
