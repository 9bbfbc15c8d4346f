package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	"github.com/kailas-cloud/bucketdb/internal/domain/collection"
	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

// collectionToHash converts a domain Collection to a map for HSET.
func collectionToHash(col collection.Collection) (map[string]string, error) {
	collationJSON, err := json.Marshal(col.DefaultCollation())
	if err != nil {
		return nil, fmt.Errorf("marshal collation: %w", err)
	}

	m := map[string]string{
		"name":       col.Name(),
		"collation":  string(collationJSON),
		"created_at": strconv.FormatInt(col.CreatedAt(), 10),
		"revision":   strconv.Itoa(col.Revision()),
	}

	if opts := col.TimeseriesOptions(); opts != nil {
		tsJSON, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("marshal timeseries options: %w", err)
		}
		m["timeseries"] = string(tsJSON)
	}

	return m, nil
}

// collectionFromHash hydrates a domain Collection from an HGETALL result map.
func collectionFromHash(m map[string]string) (collection.Collection, error) {
	createdAt, err := strconv.ParseInt(m["created_at"], 10, 64)
	if err != nil {
		return collection.Collection{}, fmt.Errorf("invalid created_at: %w", err)
	}

	var spec collation.Spec
	if s := m["collation"]; s != "" {
		if err := json.Unmarshal([]byte(s), &spec); err != nil {
			return collection.Collection{}, fmt.Errorf("unmarshal collation: %w", err)
		}
	}

	var tsOpts *timeseries.Options
	if s := m["timeseries"]; s != "" {
		var opts timeseries.Options
		if err := json.Unmarshal([]byte(s), &opts); err != nil {
			return collection.Collection{}, fmt.Errorf("unmarshal timeseries options: %w", err)
		}
		tsOpts = &opts
	}

	revision := 1
	if revStr, ok := m["revision"]; ok && revStr != "" {
		if parsed, err := strconv.Atoi(revStr); err == nil {
			revision = parsed
		}
	}

	return collection.Reconstruct(m["name"], spec, tsOpts, createdAt, revision), nil
}
