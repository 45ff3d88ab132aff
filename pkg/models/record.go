package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// geometryToMap renders an orb.Geometry as the raw GeoJSON geometry object
// a StacItem carries, round-tripping through the geojson package's own
// marshaler rather than hand-building the {"type", "coordinates"} shape.
func geometryToMap(geom orb.Geometry) (map[string]any, error) {
	raw, err := json.Marshal(geojson.NewGeometry(geom))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ProductFile is one file attached to a RecordDescriptor's Product_files
// list: a name, type, download URL, description, creation date, and size.
type ProductFile struct {
	Name         string  `json:"name"`
	Type         string  `json:"type,omitempty"`
	URL          string  `json:"url,omitempty"`
	Description  string  `json:"description,omitempty"`
	CreationDate string  `json:"creation_date,omitempty"`
	SizeKBytes   float64 `json:"size_kbytes,omitempty"`
}

// RecordDescriptor is one observation returned by the ODE records query.
type RecordDescriptor struct {
	// Required fields.
	OdeID              string  `json:"ode_id"`
	PdsID              string  `json:"pdsid"`
	HostID             string  `json:"ihid"`
	InstrumentID       string  `json:"iid"`
	ProductType        string  `json:"pt"`
	DatasetID          string  `json:"Data_Set_Id"`
	LabelFileName      string  `json:"LabelFileName"`
	ProductCreationTime string `json:"Product_creation_time"`
	TargetName         string  `json:"Target_name"`
	EasternmostLon     float64 `json:"Easternmost_longitude"`
	WesternmostLon     float64 `json:"Westernmost_longitude"`
	MaximumLat         float64 `json:"Maximum_latitude"`
	MinimumLat         float64 `json:"Minimum_latitude"`
	FootprintC0Geometry string `json:"Footprint_C0_geometry"`

	// Optional fields.
	ObservationTime      *string  `json:"Observation_time,omitempty"`
	UTCStartTime         *string  `json:"UTC_start_time,omitempty"`
	UTCStopTime          *string  `json:"UTC_stop_time,omitempty"`
	StartOrbitNumber     *int     `json:"Start_orbit_number,omitempty"`
	StopOrbitNumber      *int     `json:"Stop_orbit_number,omitempty"`
	EmissionAngle        *float64 `json:"Emission_angle,omitempty"`
	EmissionAngleText    *string  `json:"Emission_angle_text,omitempty"`
	PhaseAngle           *float64 `json:"Phase_angle,omitempty"`
	PhaseAngleText       *string  `json:"Phase_angle_text,omitempty"`
	IncidenceAngle       *float64 `json:"Incidence_angle,omitempty"`
	IncidenceAngleText   *string  `json:"Incidence_angle_text,omitempty"`
	MapResolution        *float64 `json:"Map_resolution,omitempty"`
	MapScale             *float64 `json:"Map_scale,omitempty"`
	SolarDistance        *float64 `json:"Solar_distance,omitempty"`
	SolarLongitude       *float64 `json:"Solar_longitude,omitempty"`
	CenterLatitude       *float64 `json:"Center_latitude,omitempty"`
	CenterLongitude      *float64 `json:"Center_longitude,omitempty"`

	ProductVersionID   *string `json:"Product_version_id,omitempty"`
	RelativePathToVol  *string `json:"RelativePathtoVol,omitempty"`
	PDSVolumeID        *string `json:"PDSVolume_Id,omitempty"`
	LabelProductType   *string `json:"Label_product_type,omitempty"`
	ObservationID      *string `json:"Observation_id,omitempty"`
	ObservationNumber  *int    `json:"Observation_number,omitempty"`
	ObservationType    *string `json:"Observation_type,omitempty"`
	ProducerID         *string `json:"Producer_id,omitempty"`
	ProductName        *string `json:"Product_name,omitempty"`
	ProductReleaseDate *string `json:"Product_release_date,omitempty"`
	ActivityID         *string `json:"Activity_id,omitempty"`
	Comment            *string `json:"Comment,omitempty"`
	USGSSites          *string `json:"USGS_Sites,omitempty"`
	Description        *string `json:"Description,omitempty"`

	ProductFiles []ProductFile `json:"Product_files,omitempty"`
	BrowseURL    *string       `json:"browse_url,omitempty"`
	ThumbnailURL *string       `json:"thumbnail_url,omitempty"`
	ExternalURL  *string       `json:"External_url,omitempty"`
}

// Validate enforces the RecordDescriptor invariant: a record with no
// footprint geometry cannot become a STAC item.
func (r RecordDescriptor) Validate() error {
	if strings.TrimSpace(r.FootprintC0Geometry) == "" {
		return &InvariantViolation{Resource: r.OdeID, Reason: "missing Footprint_C0_geometry"}
	}
	return nil
}

// GetPlanetID returns the STAC urn for the record's target body.
func (r RecordDescriptor) GetPlanetID() string {
	return NewURN("planet", titleCase(r.TargetName))
}

// GetMissionID returns the STAC urn for the record's mission (the
// instrument-host id, per ODE convention).
func (r RecordDescriptor) GetMissionID() string { return NewURN("mission", r.HostID) }

// GetPlatformID returns the STAC urn for the record's platform.
func (r RecordDescriptor) GetPlatformID() string { return NewURN("plateform", r.HostID) }

// GetInstrumentID returns the STAC urn for the record's instrument.
func (r RecordDescriptor) GetInstrumentID() string { return NewURN("instru", r.InstrumentID) }

// GetCollectionID returns the STAC urn for the record's dataset.
func (r RecordDescriptor) GetCollectionID() string { return NewURN("collection", r.DatasetID) }

// Bbox returns [west, south, east, north] per the STAC bbox invariant.
func (r RecordDescriptor) Bbox() [4]float64 {
	return [4]float64{r.WesternmostLon, r.MinimumLat, r.EasternmostLon, r.MaximumLat}
}

var datetimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseUTCTime(value string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot convert %q to ISO time with known layouts", value)
}

// Datetime returns the record's observation time, falling back to
// Product_creation_time and then Product_release_date. It returns
// DateConversionError if none of the three candidates parse.
func (r RecordDescriptor) Datetime() (time.Time, error) {
	candidates := []struct {
		name  string
		value *string
	}{
		{"Observation_time", r.ObservationTime},
		{"Product_creation_time", &r.ProductCreationTime},
		{"Product_release_date", r.ProductReleaseDate},
	}
	for _, c := range candidates {
		if c.value == nil || *c.value == "" || strings.HasPrefix(*c.value, "0000") {
			continue
		}
		if t, err := parseUTCTime(*c.value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateConversionError{Resource: r.OdeID, Reason: "no usable observation/creation/release time"}
}

// properties mirrors the explicit allow-list the original transform
// uses when copying ODE fields onto a STAC item's properties.
func (r RecordDescriptor) properties() map[string]any {
	props := map[string]any{
		"pt":                    r.ProductType,
		"LabelFileName":         r.LabelFileName,
		"Product_creation_time": r.ProductCreationTime,
		"Data_Set_Id":           r.DatasetID,
	}
	addIfSet := func(key string, v *string) {
		if v != nil {
			props[key] = *v
		}
	}
	addIfSetF := func(key string, v *float64) {
		if v != nil {
			props[key] = *v
		}
	}
	addIfSetI := func(key string, v *int) {
		if v != nil {
			props[key] = *v
		}
	}
	addIfSet("Product_version_id", r.ProductVersionID)
	addIfSet("PDSVolume_Id", r.PDSVolumeID)
	addIfSet("Label_product_type", r.LabelProductType)
	addIfSet("Observation_id", r.ObservationID)
	addIfSetI("Observation_number", r.ObservationNumber)
	addIfSet("Observation_type", r.ObservationType)
	addIfSet("Producer_id", r.ProducerID)
	addIfSet("Product_name", r.ProductName)
	addIfSet("Product_release_date", r.ProductReleaseDate)
	addIfSet("Activity_id", r.ActivityID)
	addIfSetF("Emission_angle", r.EmissionAngle)
	addIfSet("Emission_angle_text", r.EmissionAngleText)
	addIfSetF("Phase_angle", r.PhaseAngle)
	addIfSet("Phase_angle_text", r.PhaseAngleText)
	addIfSetF("Incidence_angle", r.IncidenceAngle)
	addIfSet("Incidence_angle_text", r.IncidenceAngleText)
	addIfSetF("Map_scale", r.MapScale)
	addIfSetF("Solar_distance", r.SolarDistance)
	addIfSetF("Solar_longitude", r.SolarLongitude)
	addIfSetF("Center_latitude", r.CenterLatitude)
	addIfSetF("Center_longitude", r.CenterLongitude)
	addIfSet("Comment", r.Comment)
	addIfSet("USGS_Sites", r.USGSSites)
	if startOrStop := r.StartOrbitNumber; startOrStop != nil {
		props["Start_orbit_number"] = *startOrStop
	}
	if r.StopOrbitNumber != nil {
		props["Stop_orbit_number"] = *r.StopOrbitNumber
	}
	return props
}

// ToStacItem converts the record into a StacItem. It returns
// InvariantViolation when the footprint is missing and
// DateConversionError when no datetime candidate is usable.
func (r RecordDescriptor) ToStacItem() (*StacItem, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	dt, err := r.Datetime()
	if err != nil {
		return nil, err
	}

	geom, err := wkt.UnmarshalString(r.FootprintC0Geometry)
	if err != nil {
		return nil, &ParseError{Resource: r.OdeID, Explanation: err}
	}
	geomMap, err := geometryToMap(geom)
	if err != nil {
		return nil, &ParseError{Resource: r.OdeID, Explanation: err}
	}

	item := &StacItem{
		ID:         r.OdeID,
		Type:       "Feature",
		Collection: r.GetCollectionID(),
		Geometry:   geomMap,
		BBox:       r.Bbox(),
		Datetime:   dt.UTC().Format(time.RFC3339),
		Properties: r.properties(),
		Assets:     r.assets(),
		Links:      []StacLink{},
	}
	return item, nil
}

func (r RecordDescriptor) assets() map[string]StacAsset {
	assets := map[string]StacAsset{}
	for _, pf := range r.ProductFiles {
		if pf.URL == "" {
			continue
		}
		assets[strings.ToLower(pf.Name)] = StacAsset{
			Href:        pf.URL,
			Title:       pf.Name,
			Description: pf.Description,
			Type:        pf.Type,
			Roles:       []string{"data"},
		}
	}
	if r.BrowseURL != nil {
		assets["browse"] = StacAsset{Href: *r.BrowseURL, Roles: []string{"thumbnail"}}
	}
	if r.ThumbnailURL != nil {
		assets["thumbnail"] = StacAsset{Href: *r.ThumbnailURL, Roles: []string{"thumbnail"}}
	}
	return assets
}
