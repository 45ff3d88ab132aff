package odl

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdssp/pds-crawler/pkg/models"
)

// FileGrammar selects which PDS3 catalog object Parse extracts from a
// label after it parses the raw ODL tree.
type FileGrammar int

const (
	GrammarMission FileGrammar = iota
	GrammarInstrumentHost
	GrammarInstrument
	GrammarDataSet
	GrammarVolume
	GrammarReference
	GrammarPersonnel
)

// Parser turns a PDS3 ODL catalog file into the matching typed object
// from pkg/models. It is stateless and safe for concurrent use.
type Parser struct {
	// Timeout bounds how long a single Parse call may take; a
	// pathological label (e.g. unterminated string) fails fast instead
	// of hanging a transform worker.
	Timeout time.Duration
}

// NewParser returns a Parser with a sane default timeout.
func NewParser() *Parser {
	return &Parser{Timeout: 30 * time.Second}
}

// Parse reads r as an ODL label and returns the typed object selected by
// kind. The returned value's concrete type depends on kind:
// GrammarMission -> models.Mission, GrammarInstrumentHost ->
// models.InstrumentHost, GrammarInstrument -> models.Instrument,
// GrammarDataSet -> models.DataSet, GrammarVolume -> models.Volume,
// GrammarReference -> []models.Reference, GrammarPersonnel ->
// []models.Personnel.
func (p *Parser) Parse(ctx context.Context, r io.Reader, kind FileGrammar) (any, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value any
		err   error
	}
	done := make(chan result, 1)
	go func() {
		label, err := odlParser.Parse("", r)
		if err != nil {
			done <- result{nil, &models.ParseError{Resource: "odl-label", Explanation: err}}
			return
		}
		v, err := extract(label, kind)
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return nil, &models.ParseError{Resource: "odl-label", Explanation: ctx.Err()}
	case res := <-done:
		return res.value, res.err
	}
}

func extract(label *Label, kind FileGrammar) (any, error) {
	switch kind {
	case GrammarMission:
		b := findBlock(label.Statements, "MISSION")
		if b == nil {
			return nil, &models.ParseError{Resource: "MISSION", Explanation: fmt.Errorf("no OBJECT = MISSION block")}
		}
		fields := flatten(b.Body)
		return models.Mission{
			MissionName:  fields["MISSION_NAME"],
			MissionStart: fields["MISSION_START_DATE"],
			MissionStop:  fields["MISSION_STOP_DATE"],
			Description:  fields["MISSION_DESC"],
		}, nil

	case GrammarInstrumentHost:
		b := findBlock(label.Statements, "INSTRUMENT_HOST")
		if b == nil {
			return nil, &models.ParseError{Resource: "INSTRUMENT_HOST", Explanation: fmt.Errorf("no OBJECT = INSTRUMENT_HOST block")}
		}
		fields := flatten(b.Body)
		return models.InstrumentHost{
			InstrumentHostID:   fields["INSTRUMENT_HOST_ID"],
			InstrumentHostName: fields["INSTRUMENT_HOST_NAME"],
			InstrumentHostType: fields["INSTRUMENT_HOST_TYPE"],
			Description:        fields["INSTRUMENT_HOST_DESC"],
		}, nil

	case GrammarInstrument:
		b := findBlock(label.Statements, "INSTRUMENT")
		if b == nil {
			return nil, &models.ParseError{Resource: "INSTRUMENT", Explanation: fmt.Errorf("no OBJECT = INSTRUMENT block")}
		}
		fields := flatten(b.Body)
		return models.Instrument{
			InstrumentID:     fields["INSTRUMENT_ID"],
			InstrumentName:   fields["INSTRUMENT_NAME"],
			InstrumentHostID: fields["INSTRUMENT_HOST_ID"],
			InstrumentType:   fields["INSTRUMENT_TYPE"],
			Description:      fields["INSTRUMENT_DESC"],
		}, nil

	case GrammarDataSet:
		b := findBlock(label.Statements, "DATA_SET")
		if b == nil {
			return nil, &models.ParseError{Resource: "DATA_SET", Explanation: fmt.Errorf("no OBJECT = DATA_SET block")}
		}
		fields := flatten(b.Body)
		ds := models.DataSet{
			DataSetID:        fields["DATA_SET_ID"],
			DataSetName:      fields["DATA_SET_NAME"],
			DataSetTerseDesc: fields["DATA_SET_TERSE_DESCRIPTION"],
			Description:      fields["DATA_SET_DESC"],
			StartTime:        fields["START_TIME"],
			StopTime:         fields["STOP_TIME"],
			MissionName:      fields["MISSION_NAME"],
			TargetName:       splitMany(fields["TARGET_NAME"]),
			InstrumentHostID: splitMany(fields["INSTRUMENT_HOST_ID"]),
			InstrumentID:     splitMany(fields["INSTRUMENT_ID"]),
		}
		for _, child := range findAllBlocks(b.Body, "DATA_SET_PRODUCER") {
			cf := flatten(child.Body)
			ds.Producers = append(ds.Producers, models.DataProducer{
				FullName:        cf["PRODUCER_FULL_NAME"],
				InstitutionName: cf["INSTITUTION_NAME"],
			})
		}
		for _, child := range findAllBlocks(b.Body, "DATA_SET_REFERENCE_INFORMATION") {
			cf := flatten(child.Body)
			ds.References = append(ds.References, models.Reference{
				ReferenceKeyID: cf["REFERENCE_KEY_ID"],
			})
		}
		return ds, nil

	case GrammarVolume:
		b := findBlock(label.Statements, "VOLUME")
		if b == nil {
			return nil, &models.ParseError{Resource: "VOLUME", Explanation: fmt.Errorf("no OBJECT = VOLUME block")}
		}
		fields := flatten(b.Body)
		catalogFields := flatten(findBlockFields(b.Body, "CATALOG"))
		return models.Volume{
			VolumeID:         fields["VOLUME_ID"],
			VolumeName:       fields["VOLUME_NAME"],
			DataSetID:        splitMany(fields["DATA_SET_ID"]),
			CatalogFileNames: catalogFields,
		}, nil

	case GrammarReference:
		var refs []models.Reference
		for _, b := range findAllBlocks(label.Statements, "REFERENCE") {
			fields := flatten(b.Body)
			refs = append(refs, models.Reference{
				ReferenceKeyID: fields["REFERENCE_KEY_ID"],
				Citation:       fields["REFERENCE_DESC"],
			})
		}
		return refs, nil

	case GrammarPersonnel:
		var people []models.Personnel
		for _, b := range findAllBlocks(label.Statements, "PERSONNEL") {
			fields := flatten(b.Body)
			var roles []string
			if r := fields["ROLE"]; r != "" {
				roles = strings.Split(r, ",")
			}
			people = append(people, models.Personnel{
				FullName:   fields["PDS_USER_ID"],
				PdsAddress: fields["PDS_ADDRESS_BOOK_FLAG"],
				Role:       roles,
				Telephone:  fields["TELEPHONE_NUMBER"],
			})
		}
		return people, nil
	}
	return nil, fmt.Errorf("unknown odl grammar kind %d", kind)
}

// flatten walks a block's statements and returns a KEYWORD -> value map,
// descending into nested GROUPs (later keys win, matching how the
// original loader flattens PVL groups before field lookup).
func flatten(stmts []*Statement) map[string]string {
	out := map[string]string{}
	var walk func([]*Statement)
	walk = func(s []*Statement) {
		for _, stmt := range s {
			switch {
			case stmt.Assignment != nil:
				out[stmt.Assignment.Key] = valueToString(stmt.Assignment.Value)
			case stmt.Block != nil && stmt.Block.Kind == "GROUP":
				walk(stmt.Block.Body)
			}
		}
	}
	walk(stmts)
	return out
}

func valueToString(v *Value) string {
	if v == nil {
		return ""
	}
	switch {
	case v.String != nil:
		return strings.Trim(*v.String, `"`)
	case v.Date != nil:
		return *v.Date
	case v.Number != nil:
		return fmt.Sprintf("%v", *v.Number)
	case v.Symbol != nil:
		return *v.Symbol
	case len(v.Seq) > 0:
		parts := make([]string, len(v.Seq))
		for i, e := range v.Seq {
			parts[i] = valueToString(e)
		}
		return strings.Join(parts, ",")
	}
	return ""
}

func splitMany(raw string) models.OneOrMany[string] {
	if raw == "" {
		return models.OneOrMany[string]{}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return models.OneOrMany[string]{Values: parts}
}

func findBlock(stmts []*Statement, name string) *Block {
	for _, stmt := range stmts {
		if stmt.Block != nil && strings.EqualFold(stmt.Block.Name, name) {
			return stmt.Block
		}
		if stmt.Block != nil {
			if found := findBlock(stmt.Block.Body, name); found != nil {
				return found
			}
		}
	}
	return nil
}

func findAllBlocks(stmts []*Statement, name string) []*Block {
	var out []*Block
	for _, stmt := range stmts {
		if stmt.Block == nil {
			continue
		}
		if strings.EqualFold(stmt.Block.Name, name) {
			out = append(out, stmt.Block)
		}
		out = append(out, findAllBlocks(stmt.Block.Body, name)...)
	}
	return out
}

// findBlockFields returns the body of the first block named name, used for
// the VOLDESC CATALOG group whose own keys are the logical table names
// (MISSION, INSTHOST, INSTRUMENT, DATASET, ...).
func findBlockFields(stmts []*Statement, name string) []*Statement {
	if b := findBlock(stmts, name); b != nil {
		return b.Body
	}
	return nil
}
