package document

import (
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/bucketdb/internal/domain/timeseries"
)

func encodeDoc(doc map[string]any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

func decodeDoc(raw []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func encodeBucket(b *timeseries.Bucket) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal bucket %s: %w", b.ID, err)
	}
	return data, nil
}

func decodeBucket(raw []byte) (*timeseries.Bucket, error) {
	var b timeseries.Bucket
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("unmarshal bucket: %w", err)
	}
	return &b, nil
}

// seriesField renders a stable hash-field name for a series metadata value.
func seriesField(meta any) string {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Sprintf("%v", meta)
	}
	return string(data)
}
