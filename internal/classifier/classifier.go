// Package classifier profiles incoming queries so the retrieval pipeline can
// adapt its selection policy. Two implementations exist: a deterministic
// keyword classifier and a model-backed one that falls back to the keyword
// classifier on any failure.
package classifier

import (
	"context"

	"github.com/Ngocphuc1910/make10000hours-sub001/internal/retrieval"
)

// Classifier derives a query profile from raw query text.
type Classifier interface {
	Classify(ctx context.Context, query string) (retrieval.QueryProfile, error)
}
