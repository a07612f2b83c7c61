package report

import (
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"

	"filmstats/internal/exporter"
	"filmstats/pkg/contracts/domain"
)

// WriteBSONDump writes aggregates as consecutive BSON documents, the layout
// mongodump produces and mongorestore reads
func WriteBSONDump(path string, aggs []domain.MovieAggregate) error {
	return exporter.WriteFile(path, func(w io.Writer) error {
		for i := range aggs {
			doc, err := bson.Marshal(&aggs[i])
			if err != nil {
				return fmt.Errorf("marshal aggregate %s: %w", aggs[i].MovieID, err)
			}
			if _, err := w.Write(doc); err != nil {
				return err
			}
		}
		return nil
	})
}
