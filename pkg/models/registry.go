package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sanitizeToken = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeIdentityToken replaces every character outside [A-Za-z0-9_] with
// an underscore, matching the registry's group-naming contract.
func SanitizeIdentityToken(token string) string {
	return sanitizeToken.ReplaceAllString(token, "_")
}

// CollectionDescriptor mirrors one ODE IIPTSet: the identity tuple
// (Body, HostID, InstrumentID, ProductType, DatasetID) plus the vendor
// attributes ODE reports for it.
type CollectionDescriptor struct {
	Body               string `json:"body"`
	HostID             string `json:"ihid"`
	HostName           string `json:"ihname"`
	InstrumentID       string `json:"iid"`
	InstrumentName     string `json:"iname"`
	ProductType        string `json:"pt"`
	ProductTypeName    string `json:"pt_name"`
	DatasetID          string `json:"dataset_id"`
	ProductCount       int    `json:"number_products"`
	HasValidFootprints bool   `json:"has_valid_footprints"`
	ValidTargets       []string `json:"valid_targets"`

	MinOrbit *int `json:"min_orbit,omitempty"`
	MaxOrbit *int `json:"max_orbit,omitempty"`

	MinObservationTime *string `json:"min_observation_time,omitempty"`
	MaxObservationTime *string `json:"max_observation_time,omitempty"`
	NumberObservations *int    `json:"number_observations,omitempty"`

	SpecialValue1Label *string  `json:"special_value1_label,omitempty"`
	MinSpecialValue1   *float64 `json:"min_special_value1,omitempty"`
	MaxSpecialValue1   *float64 `json:"max_special_value1,omitempty"`

	SpecialValue2Label *string  `json:"special_value2_label,omitempty"`
	MinSpecialValue2   *float64 `json:"min_special_value2,omitempty"`
	MaxSpecialValue2   *float64 `json:"max_special_value2,omitempty"`
}

// IdentityTokens returns the five identity components in their canonical
// registry/file-cache order: body, host id, instrument id, product type,
// dataset id.
func (d CollectionDescriptor) IdentityTokens() []string {
	return []string{d.Body, d.HostID, d.InstrumentID, d.ProductType, d.DatasetID}
}

// IdentityPath returns the sanitized, "/"-joined registry group path that
// both the Registry and the FileCache key off of.
func (d CollectionDescriptor) IdentityPath() string {
	tokens := d.IdentityTokens()
	sanitized := make([]string, len(tokens))
	for i, t := range tokens {
		sanitized[i] = SanitizeIdentityToken(strings.ToLower(t))
	}
	return strings.Join(sanitized, "/")
}

// Validate enforces the CollectionDescriptor invariant: product count must
// be non-negative, and a descriptor with zero products or no valid
// footprints is rejected.
func (d CollectionDescriptor) Validate() error {
	if d.ProductCount < 0 {
		return &InvariantViolation{Resource: d.DatasetID, Reason: "product count is negative"}
	}
	if d.ProductCount == 0 {
		return &InvariantViolation{Resource: d.DatasetID, Reason: "product count is zero"}
	}
	if !d.HasValidFootprints {
		return &InvariantViolation{Resource: d.DatasetID, Reason: "collection has no valid footprints"}
	}
	return nil
}

// String renders a short, log-friendly identity summary.
func (d CollectionDescriptor) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", d.Body, d.HostID, d.InstrumentID, d.ProductType, d.DatasetID)
}

// GetBodyID returns the STAC urn for the collection's solar-system body.
func (d CollectionDescriptor) GetBodyID() string {
	return NewURN("planet", titleCase(d.Body))
}

// GetMissionID returns the STAC urn for the collection's mission, which ODE
// identifies with the instrument-host id.
func (d CollectionDescriptor) GetMissionID() string {
	return NewURN("mission", d.HostID)
}

// GetPlatformID returns the STAC urn for the collection's platform.
func (d CollectionDescriptor) GetPlatformID() string {
	return NewURN("plateform", d.HostID)
}

// GetInstrumentID returns the STAC urn for the collection's instrument.
func (d CollectionDescriptor) GetInstrumentID() string {
	return NewURN("instru", d.InstrumentID)
}

// GetCollectionID returns the STAC urn for the collection itself.
func (d CollectionDescriptor) GetCollectionID() string {
	return NewURN("collection", d.DatasetID)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// IIPTSet is the shape of one ODE IIPTSet entry, decoded directly from the
// collections-query JSON response.
type IIPTSet struct {
	ODEMetaDB           string   `json:"ODEMetaDB"`
	IHID                string   `json:"IHID"`
	IHName              string   `json:"IHName"`
	IID                 string   `json:"IID"`
	IName               string   `json:"IName"`
	PT                  string   `json:"PT"`
	PTName              string   `json:"PTName"`
	DataSetID           string   `json:"DataSetId"`
	NumberProducts      string   `json:"NumberProducts"`
	HasValidFootprint   string   `json:"HasValidFootprint"`
	ValidTargets        []string `json:"ValidTargets"`
	MinOrbit            string   `json:"MinOrbit"`
	MaxOrbit            string   `json:"MaxOrbit"`
	MinObservationTime  string   `json:"MinObservationTime"`
	MaxObservationTime  string   `json:"MaxObservationTime"`
	NumberObservations  string   `json:"NumberObservations"`
	SpecialValue1       string   `json:"SpecialValue1"`
	MinSpecialValue1    string   `json:"MinSpecialValue1"`
	MaxSpecialValue1    string   `json:"MaxSpecialValue1"`
	SpecialValue2       string   `json:"SpecialValue2"`
	MinSpecialValue2    string   `json:"MinSpecialValue2"`
	MaxSpecialValue2    string   `json:"MaxSpecialValue2"`
}

func atoiPtr(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func atofPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewCollectionDescriptorFromIIPTSet converts one raw ODE IIPTSet entry,
// whose numeric fields all arrive as strings, into a typed
// CollectionDescriptor. body is supplied by the caller; the IIPTSet's own
// ODEMetaDB field is not read.
func NewCollectionDescriptorFromIIPTSet(body string, raw IIPTSet) CollectionDescriptor {
	count, err := strconv.Atoi(strings.TrimSpace(raw.NumberProducts))
	if err != nil {
		count = 0
	}
	d := CollectionDescriptor{
		Body:               body,
		HostID:             raw.IHID,
		HostName:           raw.IHName,
		InstrumentID:       raw.IID,
		InstrumentName:     raw.IName,
		ProductType:        raw.PT,
		ProductTypeName:    raw.PTName,
		DatasetID:          raw.DataSetID,
		ProductCount:       count,
		HasValidFootprints: strings.EqualFold(strings.TrimSpace(raw.HasValidFootprint), "true"),
		ValidTargets:       raw.ValidTargets,
		MinOrbit:           atoiPtr(raw.MinOrbit),
		MaxOrbit:           atoiPtr(raw.MaxOrbit),
		MinObservationTime: strPtrOrNil(raw.MinObservationTime),
		MaxObservationTime: strPtrOrNil(raw.MaxObservationTime),
		NumberObservations: atoiPtr(raw.NumberObservations),
		SpecialValue1Label: strPtrOrNil(raw.SpecialValue1),
		MinSpecialValue1:   atofPtr(raw.MinSpecialValue1),
		MaxSpecialValue1:   atofPtr(raw.MaxSpecialValue1),
		SpecialValue2Label: strPtrOrNil(raw.SpecialValue2),
		MinSpecialValue2:   atofPtr(raw.MinSpecialValue2),
		MaxSpecialValue2:   atofPtr(raw.MaxSpecialValue2),
	}
	return d
}
