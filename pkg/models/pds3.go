package models

import "strings"

// OneOrMany normalizes a PDS3 label field that legally appears either once
// or repeated (e.g. INSTRUMENT_HOST_ID can be a scalar or a sequence) into
// a single slice, the way the ODL parser always hands it back.
type OneOrMany[T any] struct {
	Values []T
}

// First returns the first value, or the zero value if empty.
func (o OneOrMany[T]) First() T {
	var zero T
	if len(o.Values) == 0 {
		return zero
	}
	return o.Values[0]
}

// Mission is the PDS3 MISSION.CAT catalog object.
type Mission struct {
	MissionName  string `json:"mission_name"`
	MissionStart string `json:"mission_start,omitempty"`
	MissionStop  string `json:"mission_stop,omitempty"`
	Description  string `json:"description,omitempty"`
}

// ToStacCatalog renders the mission as a STAC catalog node, linked under
// its target body's node.
func (m Mission) ToStacCatalog() *StacNode {
	return NewCatalogNode(NewURN("mission", m.MissionName), m.MissionName, m.Description)
}

// InstrumentHost is the PDS3 HOST.CAT catalog object (the platform, in
// ODE's "ihid" terminology).
type InstrumentHost struct {
	InstrumentHostID   string `json:"instrument_host_id"`
	InstrumentHostName string `json:"instrument_host_name"`
	InstrumentHostType string `json:"instrument_host_type,omitempty"`
	Description        string `json:"description,omitempty"`
}

// ToStacCatalog renders the platform as a STAC catalog node nested under a
// mission.
func (h InstrumentHost) ToStacCatalog() *StacNode {
	return NewCatalogNode(NewURN("plateform", h.InstrumentHostID), h.InstrumentHostName, h.Description)
}

// Instrument is the PDS3 INSTRUMENT.CAT catalog object.
type Instrument struct {
	InstrumentID       string `json:"instrument_id"`
	InstrumentName     string `json:"instrument_name"`
	InstrumentHostID   string `json:"instrument_host_id,omitempty"`
	InstrumentType     string `json:"instrument_type,omitempty"`
	Description        string `json:"description,omitempty"`
}

// ToStacCatalog renders the instrument as a STAC catalog node nested under
// a platform.
func (i Instrument) ToStacCatalog() *StacNode {
	return NewCatalogNode(NewURN("instru", i.InstrumentID), i.InstrumentName, i.Description)
}

// DataProducer is one entry of a DataSet's DATA_SET_PRODUCER table.
type DataProducer struct {
	FullName        string `json:"full_name,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`
}

// DataSupplier mirrors the CATALOG.CAT data-supplier personnel block.
type DataSupplier struct {
	FullName        string `json:"full_name,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`
	Address         string `json:"address,omitempty"`
}

// Personnel is one PERSONNEL.CAT entry.
type Personnel struct {
	FullName    string   `json:"full_name,omitempty"`
	PdsAddress  string   `json:"pds_address,omitempty"`
	Role        []string `json:"role,omitempty"`
	Telephone   string   `json:"telephone_number,omitempty"`
}

// Reference is one REF.CAT bibliographic entry.
type Reference struct {
	ReferenceKeyID string `json:"reference_key_id"`
	Citation       string `json:"reference_desc,omitempty"`
}

// DataSet is the PDS3 DATASET.CAT catalog object: the closest PDS3
// counterpart to a STAC Collection.
type DataSet struct {
	DataSetID          string          `json:"data_set_id"`
	DataSetName        string          `json:"data_set_name"`
	DataSetTerseDesc   string          `json:"data_set_terse_description,omitempty"`
	Description        string          `json:"description,omitempty"`
	StartTime          string          `json:"start_time,omitempty"`
	StopTime           string          `json:"stop_time,omitempty"`
	TargetName         OneOrMany[string] `json:"target_name,omitempty"`
	MissionName        string          `json:"mission_name,omitempty"`
	InstrumentHostID   OneOrMany[string] `json:"instrument_host_id,omitempty"`
	InstrumentID       OneOrMany[string] `json:"instrument_id,omitempty"`
	Producers          []DataProducer  `json:"producers,omitempty"`
	References         []Reference     `json:"references,omitempty"`
}

// ToStacCollection renders the dataset as a STAC collection node. bbox and
// interval are computed upstream from the dataset's records, since the
// PDS3 label itself carries no aggregate spatial/temporal extent.
func (d DataSet) ToStacCollection(bbox [][]float64, interval [][2]*string) *StacNode {
	node := NewCollectionNode(NewURN("collection", d.DataSetID), d.DataSetName, d.Description)
	node.Extent = &StacExtent{
		Spatial:  StacSpatialExtent{BBox: bbox},
		Temporal: StacTemporalExtent{Interval: interval},
	}
	for _, p := range d.Producers {
		node.Providers = append(node.Providers, StacProvider{
			Name:  p.FullName,
			Roles: []string{"producer"},
		})
	}
	if len(d.TargetName.Values) > 0 {
		node.Summaries = map[string][]string{"target": d.TargetName.Values}
	}
	return node
}

// Volume is the PDS3 VOLDESC.CAT catalog object describing one archive
// volume: its id, data set pointers, and the catalog files it references.
type Volume struct {
	VolumeID         string   `json:"volume_id"`
	VolumeName       string   `json:"volume_name,omitempty"`
	DataSetID        OneOrMany[string] `json:"data_set_id,omitempty"`
	CatalogFileNames map[string]string `json:"catalog,omitempty"`
}

// CatalogFile returns the filename for one catalog table keyword (e.g.
// "MISSION", "INSTHOST", "INSTRUMENT", "DATASET", "REFERENCE", "PERSONNEL"),
// case-insensitively, or "" if the volume description omits it.
func (v Volume) CatalogFile(table string) string {
	for k, name := range v.CatalogFileNames {
		if strings.EqualFold(k, table) {
			return name
		}
	}
	return ""
}
