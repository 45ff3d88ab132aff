package transform

import (
	"context"
	"fmt"
	"os"

	"github.com/pdssp/pds-crawler/pkg/models"
	"github.com/pdssp/pds-crawler/pkg/odl"
	"github.com/pdssp/pds-crawler/pkg/report"
	"github.com/pdssp/pds-crawler/pkg/storage"
)

// BuildContext carries the state a catalog-building step reads from and
// writes to. Every step function has the same signature, so the chain is
// a plain slice rather than a class hierarchy of handlers.
type BuildContext struct {
	Collection models.CollectionDescriptor
	Cache      *storage.FileCache
	Parser     *odl.Parser

	Root     *models.StacNode
	Mission  *models.StacNode
	Platform *models.StacNode
	Instru   *models.StacNode
	Dataset  *models.StacNode

	Volume models.Volume
}

// catalogStep is one link of the chain: it reads/writes ctx and may fail.
type catalogStep func(ctx context.Context, bc *BuildContext) error

// Catalogs runs the full voldesc -> mission -> platform -> instrument ->
// dataset -> references -> personnel chain for one collection, merging
// the result under root using the "longer description wins" heuristic.
type Catalogs struct {
	Stac *storage.Stac
	Sink report.Sink
}

// NewCatalogs returns a Catalogs builder that persists via stac.
func NewCatalogs(stac *storage.Stac, sink report.Sink) *Catalogs {
	return &Catalogs{Stac: stac, Sink: sink}
}

var catalogChain = []catalogStep{
	loadVolDesc,
	buildMissionNode,
	buildPlatformNode,
	buildInstrumentNode,
	buildDatasetNode,
	attachReferences,
	attachPersonnel,
}

// Build runs the catalog chain for d, links the resulting
// body -> mission -> platform -> instrument -> dataset (collection) subtree
// under root, and returns the dataset node.
func (c *Catalogs) Build(ctx context.Context, root *models.StacNode, d models.CollectionDescriptor, cache *storage.FileCache, parser *odl.Parser) (*models.StacNode, error) {
	bc := &BuildContext{Collection: d, Cache: cache, Parser: parser, Root: root}
	for _, step := range catalogChain {
		if err := step(ctx, bc); err != nil {
			if c.Sink != nil {
				c.Sink.Report(d.String(), err)
			}
			return nil, err
		}
	}
	c.link(bc)
	c.save(bc)
	return bc.Dataset, nil
}

func (c *Catalogs) link(bc *BuildContext) {
	attach := func(parent, child *models.StacNode) {
		if existing := parent.GetChild(child.ID); existing == nil || storage.ShouldReplace(existing, child) {
			parent.AddChild(child)
		}
	}
	body := bc.Root.GetChild(bc.Collection.GetBodyID())
	if body == nil {
		body = models.NewCatalogNode(bc.Collection.GetBodyID(), bc.Collection.Body, "")
		bc.Root.AddChild(body)
	}
	attach(body, bc.Mission)
	attach(bc.Mission, bc.Platform)
	attach(bc.Platform, bc.Instru)
	attach(bc.Instru, bc.Dataset)
}

func (c *Catalogs) save(bc *BuildContext) {
	if c.Stac == nil {
		return
	}
	for _, n := range []*models.StacNode{bc.Mission, bc.Platform, bc.Instru, bc.Dataset} {
		_ = c.Stac.SaveNode(n)
	}
}

func loadVolDesc(ctx context.Context, bc *BuildContext) error {
	path, err := bc.Cache.GetVolumeDescription(bc.Collection)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("no VOLDESC.CAT cached for %s", bc.Collection)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	v, err := bc.Parser.Parse(ctx, f, odl.GrammarVolume)
	if err != nil {
		return err
	}
	bc.Volume = v.(models.Volume)
	return nil
}

func parseCatalog[T any](ctx context.Context, bc *BuildContext, table string, kind odl.FileGrammar) (T, error) {
	var zero T
	name := bc.Volume.CatalogFile(table)
	if name == "" {
		return zero, fmt.Errorf("volume description for %s has no %s catalog entry", bc.Collection, table)
	}
	path, err := bc.Cache.GetCatalog(bc.Collection, name)
	if err != nil {
		return zero, err
	}
	if path == "" {
		return zero, fmt.Errorf("catalog file %s not cached for %s", name, bc.Collection)
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	v, err := bc.Parser.Parse(ctx, f, kind)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

func buildMissionNode(ctx context.Context, bc *BuildContext) error {
	m, err := parseCatalog[models.Mission](ctx, bc, "MISSION", odl.GrammarMission)
	if err != nil {
		return err
	}
	bc.Mission = m.ToStacCatalog()
	return nil
}

func buildPlatformNode(ctx context.Context, bc *BuildContext) error {
	h, err := parseCatalog[models.InstrumentHost](ctx, bc, "INSTHOST", odl.GrammarInstrumentHost)
	if err != nil {
		return err
	}
	bc.Platform = h.ToStacCatalog()
	return nil
}

func buildInstrumentNode(ctx context.Context, bc *BuildContext) error {
	i, err := parseCatalog[models.Instrument](ctx, bc, "INSTRUMENT", odl.GrammarInstrument)
	if err != nil {
		return err
	}
	bc.Instru = i.ToStacCatalog()
	return nil
}

func buildDatasetNode(ctx context.Context, bc *BuildContext) error {
	ds, err := parseCatalog[models.DataSet](ctx, bc, "DATASET", odl.GrammarDataSet)
	if err != nil {
		return err
	}
	bc.Dataset = ds.ToStacCollection(nil, nil)
	return nil
}

func attachReferences(ctx context.Context, bc *BuildContext) error {
	refs, err := parseCatalog[[]models.Reference](ctx, bc, "REFERENCE", odl.GrammarReference)
	if err != nil {
		// References are supplementary; a missing REF.CAT should not
		// fail the whole chain.
		return nil
	}
	if len(refs) == 0 {
		return nil
	}
	bc.Dataset.ExtraFields["references"] = refs
	return nil
}

func attachPersonnel(ctx context.Context, bc *BuildContext) error {
	people, err := parseCatalog[[]models.Personnel](ctx, bc, "PERSONNEL", odl.GrammarPersonnel)
	if err != nil {
		return nil
	}
	if len(people) == 0 {
		return nil
	}
	bc.Dataset.ExtraFields["personnel"] = people
	return nil
}
