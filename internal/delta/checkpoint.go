package delta

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// checkpointRow is the subset of the checkpoint schema replay needs. Columns
// absent from this struct (protocol, txn, stats, ...) are skipped.
type checkpointRow struct {
	Add      *checkpointAdd      `parquet:"add,optional"`
	Remove   *checkpointRemove   `parquet:"remove,optional"`
	MetaData *checkpointMetaData `parquet:"metaData,optional"`
}

type checkpointAdd struct {
	Path             string `parquet:"path,optional"`
	Size             int64  `parquet:"size,optional"`
	ModificationTime int64  `parquet:"modificationTime,optional"`
	DataChange       bool   `parquet:"dataChange,optional"`
}

type checkpointRemove struct {
	Path              string `parquet:"path,optional"`
	DeletionTimestamp *int64 `parquet:"deletionTimestamp,optional"`
	DataChange        bool   `parquet:"dataChange,optional"`
}

type checkpointMetaData struct {
	ID               string            `parquet:"id,optional"`
	PartitionColumns []string          `parquet:"partitionColumns,list,optional"`
	Configuration    map[string]string `parquet:"configuration,optional"`
}

const checkpointBatch = 1024

// readCheckpoint decodes one checkpoint part into actions.
func readCheckpoint(data []byte) ([]action, error) {
	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)),
		parquet.SkipPageIndex(true),
		parquet.SkipBloomFilters(true),
	)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}

	reader := parquet.NewGenericReader[checkpointRow](file)
	defer reader.Close()

	var out []action
	rows := make([]checkpointRow, checkpointBatch)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			if a, ok := row.toAction(); ok {
				out = append(out, a)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read checkpoint: %w", err)
		}
		if n == 0 {
			break
		}
		clear(rows)
	}
	return out, nil
}

func (r checkpointRow) toAction() (action, bool) {
	switch {
	case r.Add != nil && r.Add.Path != "":
		return action{Add: &AddFile{
			Path:             r.Add.Path,
			Size:             r.Add.Size,
			ModificationTime: r.Add.ModificationTime,
			DataChange:       r.Add.DataChange,
		}}, true
	case r.Remove != nil && r.Remove.Path != "":
		return action{Remove: &RemoveFile{
			Path:              r.Remove.Path,
			DeletionTimestamp: r.Remove.DeletionTimestamp,
			DataChange:        r.Remove.DataChange,
		}}, true
	case r.MetaData != nil && r.MetaData.ID != "":
		return action{MetaData: &Metadata{
			ID:               r.MetaData.ID,
			PartitionColumns: r.MetaData.PartitionColumns,
			Configuration:    r.MetaData.Configuration,
		}}, true
	}
	return action{}, false
}
