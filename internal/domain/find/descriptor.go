// Package find holds the intermediate find-command descriptor that delete
// compilation lowers requests into before canonicalization.
package find

import (
	"github.com/kailas-cloud/bucketdb/internal/domain/collation"
	"github.com/kailas-cloud/bucketdb/internal/domain/expression"
)

// Descriptor describes the query a write operation executes internally.
// Filter is the raw document form; canonicalization parses and normalizes it.
type Descriptor struct {
	Namespace        string
	Filter           map[string]any
	Sort             map[string]int
	Collation        collation.Spec
	Hint             string
	Limit            int64
	RuntimeConstants *expression.RuntimeConstants
	Let              map[string]any
}
