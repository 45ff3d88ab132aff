// Package transform converts extracted ODE records and PDS3 catalog
// objects into the materialized STAC tree.
package transform

import (
	"github.com/pdssp/pds-crawler/pkg/extract"
	"github.com/pdssp/pds-crawler/pkg/metrics"
	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/report"
	"github.com/pdssp/pds-crawler/pkg/storage"
)

// Records converts one collection's cached record pages into STAC items
// under its STAC collection node.
type Records struct {
	Extract *extract.Records
	Stac    *storage.Stac
	Sink    report.Sink
	Metrics *metrics.Metrics
}

// NewRecords wires a Records transformer.
func NewRecords(ex *extract.Records, stac *storage.Stac, sink report.Sink, m *metrics.Metrics) *Records {
	return &Records{Extract: ex, Stac: stac, Sink: sink, Metrics: m}
}

// Run converts every cached record of d into a STAC item under
// collection, skipping items already materialized, and returns the
// number of items newly written. It follows eight steps: stream pages,
// skip already-materialized items, validate the record, convert to a
// STAC item, accumulate the collection's spatial/temporal extent, save
// the item, update the collection node, and report anything dropped.
func (t *Records) Run(collection *models.StacNode, d models.CollectionDescriptor) (int, error) {
	written := 0
	var bbox [][]float64
	var interval [][2]*string

	for rec, err := range t.Extract.StreamPages(d) {
		if err != nil {
			if t.Sink != nil {
				t.Sink.Report(d.String(), err)
			}
			continue
		}

		if t.Stac.ItemExists(collection, rec.OdeID) {
			continue
		}

		item, err := rec.ToStacItem()
		if err != nil {
			if t.Sink != nil {
				t.Sink.Report(rec.OdeID, err)
			}
			continue
		}

		collection.AddItem(item)
		b := item.BBox
		bbox = append(bbox, []float64{b[0], b[1], b[2], b[3]})
		dt := item.Datetime
		interval = append(interval, [2]*string{&dt, &dt})

		if err := t.Stac.SaveItem(collection, item); err != nil {
			return written, err
		}
		written++
		if t.Metrics != nil {
			t.Metrics.RecordsTransformed.Inc()
		}
	}

	if written > 0 {
		mergeExtent(collection, bbox, interval)
		if err := t.Stac.SaveNode(collection); err != nil {
			return written, err
		}
	}
	return written, nil
}

func mergeExtent(collection *models.StacNode, bbox [][]float64, interval [][2]*string) {
	if collection.Extent == nil {
		collection.Extent = &models.StacExtent{}
	}
	collection.Extent.Spatial.BBox = append(collection.Extent.Spatial.BBox, bbox...)
	collection.Extent.Temporal.Interval = append(collection.Extent.Temporal.Interval, interval...)
}
