package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dev-tams/deltapurge/internal/config"
	"github.com/dev-tams/deltapurge/internal/storage/local"
	miniostore "github.com/dev-tams/deltapurge/internal/storage/minio"
	s3store "github.com/dev-tams/deltapurge/internal/storage/s3"
)

// FromConfig builds the backend serving loc. file:// tables always use the
// local filesystem rooted at "/"; object-store tables use storage.type.
func FromConfig(ctx context.Context, cfg *config.Config, loc config.TableLocation) (Store, error) {
	if loc.Scheme() == "file" {
		return local.New("local", "/"), nil
	}

	st := cfg.Storage
	switch strings.ToLower(st.Type) {
	case "", "s3":
		s, err := s3store.New(ctx, s3store.Options{
			Name:      "s3",
			Bucket:    loc.Bucket(),
			Region:    st.Region,
			Endpoint:  st.Endpoint,
			AccessKey: st.AccessKey,
			SecretKey: st.SecretKey,
			PathStyle: st.PathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("storage s3: %w", err)
		}
		return s, nil

	case "minio":
		s, err := miniostore.New(miniostore.Options{
			Name:      "minio",
			Bucket:    loc.Bucket(),
			Endpoint:  st.Endpoint,
			Region:    st.Region,
			AccessKey: st.AccessKey,
			SecretKey: st.SecretKey,
			UseSSL:    st.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("storage minio: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("storage: unknown type %q", st.Type)
	}
}
