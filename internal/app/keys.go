package app

import (
	"strings"

	"github.com/dev-tams/deltapurge/internal/config"
)

// MaterializeKey joins the table root prefix and a root-relative path into a
// bucket-relative object key.
func MaterializeKey(loc config.TableLocation, rel string) (string, error) {
	if rel == "" || strings.HasPrefix(rel, "/") {
		return "", &InvalidCandidateError{Path: rel}
	}
	return loc.Prefix() + rel, nil
}

// MaterializeKeys maps every candidate in order. The first invalid path
// aborts the whole batch.
func MaterializeKeys(loc config.TableLocation, rels []string) ([]string, error) {
	keys := make([]string, 0, len(rels))
	for _, rel := range rels {
		k, err := MaterializeKey(loc, rel)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}
