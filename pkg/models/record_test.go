package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() RecordDescriptor {
	creation := "2016-07-14T00:00:00Z"
	return RecordDescriptor{
		OdeID:               "mars_viking_1_abc123",
		PdsID:                "VO1_0001",
		HostID:               "VO1",
		InstrumentID:         "VISA",
		ProductType:          "EDR",
		DatasetID:            "VO1/VO2-M-VIS-2-EDR-V2.0",
		LabelFileName:        "F001A01.LBL",
		ProductCreationTime:  creation,
		TargetName:           "MARS",
		WesternmostLon:       10,
		EasternmostLon:       20,
		MinimumLat:           -5,
		MaximumLat:           5,
		FootprintC0Geometry:  "POLYGON((10 -5, 20 -5, 20 5, 10 5, 10 -5))",
	}
}

func TestRecordDescriptorBbox(t *testing.T) {
	r := sampleRecord()
	assert.Equal(t, [4]float64{10, -5, 20, 5}, r.Bbox())
}

func TestRecordDescriptorValidateRejectsMissingFootprint(t *testing.T) {
	r := sampleRecord()
	r.FootprintC0Geometry = "  "
	err := r.Validate()
	require.Error(t, err)
	var invariant *InvariantViolation
	require.ErrorAs(t, err, &invariant)
}

func TestRecordDescriptorDatetimeFallsBackToCreationTime(t *testing.T) {
	r := sampleRecord()
	dt, err := r.Datetime()
	require.NoError(t, err)
	assert.Equal(t, 2016, dt.Year())
}

func TestRecordDescriptorDatetimePrefersObservationTime(t *testing.T) {
	r := sampleRecord()
	obs := "2010-01-02T03:04:05Z"
	r.ObservationTime = &obs
	dt, err := r.Datetime()
	require.NoError(t, err)
	assert.Equal(t, 2010, dt.Year())
}

func TestRecordDescriptorDatetimeErrorsWithNoCandidates(t *testing.T) {
	r := sampleRecord()
	r.ProductCreationTime = ""
	_, err := r.Datetime()
	require.Error(t, err)
	var conv *DateConversionError
	require.ErrorAs(t, err, &conv)
}

func TestRecordDescriptorToStacItem(t *testing.T) {
	r := sampleRecord()
	item, err := r.ToStacItem()
	require.NoError(t, err)
	assert.Equal(t, r.OdeID, item.ID)
	assert.Equal(t, "Feature", item.Type)
	assert.Equal(t, r.GetCollectionID(), item.Collection)
	assert.Equal(t, "Polygon", item.Geometry["type"])
	assert.Equal(t, r.DatasetID, item.Properties["Data_Set_Id"])
}

func TestRecordDescriptorToStacItemRejectsBadWkt(t *testing.T) {
	r := sampleRecord()
	r.FootprintC0Geometry = "NOT_WKT(( 1 2"
	_, err := r.ToStacItem()
	require.Error(t, err)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
}
