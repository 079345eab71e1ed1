package images

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"fridge-chef/internal/domain"
)

// BaseURLResolver joins image names onto a static host, for deployments
// that serve the dataset images from a plain file server or CDN.
type BaseURLResolver struct {
	baseURL string
}

func NewBaseURLResolver(baseURL string) *BaseURLResolver {
	return &BaseURLResolver{baseURL: strings.TrimRight(baseURL, "/")}
}

func (r *BaseURLResolver) Resolve(ctx context.Context, imageName string) (string, error) {
	if imageName == "" {
		return "", errors.New("empty image name")
	}
	return fmt.Sprintf("%s/%s.jpg", r.baseURL, url.PathEscape(imageName)), nil
}

var _ domain.ImageResolver = (*BaseURLResolver)(nil)
