package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableLocation(t *testing.T) {
	cases := []struct {
		uri    string
		scheme string
		bucket string
		prefix string
	}{
		{"s3://bucket/table/", "s3", "bucket", "table/"},
		{"s3a://bucket/warehouse/db/events/", "s3a", "bucket", "warehouse/db/events/"},
		{"s3://bucket/", "s3", "bucket", ""},
		{"file:///var/lib/lake/t/", "file", "", "var/lib/lake/t/"},
	}

	for _, tc := range cases {
		loc, err := ParseTableLocation(tc.uri)
		require.NoError(t, err, tc.uri)
		assert.Equal(t, tc.scheme, loc.Scheme(), tc.uri)
		assert.Equal(t, tc.bucket, loc.Bucket(), tc.uri)
		assert.Equal(t, tc.prefix, loc.Prefix(), tc.uri)
		assert.Equal(t, tc.uri, loc.String())
	}
}
