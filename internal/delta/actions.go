package delta

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type AddFile struct {
	Path             string `json:"path"`
	Size             int64  `json:"size"`
	ModificationTime int64  `json:"modificationTime"`
	DataChange       bool   `json:"dataChange"`
}

type RemoveFile struct {
	Path string `json:"path"`
	// DeletionTimestamp is unix milliseconds; absent means "long ago".
	DeletionTimestamp *int64 `json:"deletionTimestamp,omitempty"`
	DataChange        bool   `json:"dataChange"`
}

func (r RemoveFile) deletedAtMs() int64 {
	if r.DeletionTimestamp == nil {
		return 0
	}
	return *r.DeletionTimestamp
}

type Metadata struct {
	ID               string            `json:"id"`
	PartitionColumns []string          `json:"partitionColumns"`
	Configuration    map[string]string `json:"configuration"`
}

type action struct {
	Add      *AddFile    `json:"add,omitempty"`
	Remove   *RemoveFile `json:"remove,omitempty"`
	MetaData *Metadata   `json:"metaData,omitempty"`
}

const maxCommitLine = 64 << 20

// parseCommit decodes a newline-delimited JSON commit file.
func parseCommit(data []byte) ([]action, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxCommitLine)

	var out []action
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var a action
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, a)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// relativePath turns an action path into a path relative to the table root
// key prefix. Absolute URIs outside the root report ok=false.
func relativePath(root, p string) (string, bool) {
	if strings.Contains(p, "://") {
		u, err := url.Parse(p)
		if err != nil {
			return "", false
		}
		key := strings.TrimPrefix(u.Path, "/")
		if !strings.HasPrefix(key, root) {
			return "", false
		}
		return strings.TrimPrefix(key, root), true
	}

	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return strings.TrimPrefix(p, "/"), p != ""
}
