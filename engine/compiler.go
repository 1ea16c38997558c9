// Package engine provides the main FSH compilation engine. It ties the
// tank, the cross-document entity resolver, the external definition store,
// and the export session together behind a small facade.
package engine

import (
	"fmt"

	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/export"
	"github.com/gofhir/fshc/fishing"
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/loader"
	"github.com/gofhir/fshc/logger"
	"github.com/gofhir/fshc/service"
)

// Compiler compiles a tank of authored FSH entities into StructureDefinition
// artifacts. A Compiler may be reused: each Compile call runs in a fresh
// export session.
type Compiler struct {
	tank    *fsh.Tank
	defs    *loader.InMemoryDefinitionStore
	options *fshc.Options
	log     *logger.Logger

	fisher *fishing.Fisher

	lastMetrics *fshc.Metrics
}

// New creates a Compiler over a tank. The definition store supplies the
// type hierarchy and external base definitions; it may be shared between
// compilers.
func New(tank *fsh.Tank, defs *loader.InMemoryDefinitionStore, opts ...fshc.Option) (*Compiler, error) {
	if tank == nil {
		return nil, fmt.Errorf("tank is nil")
	}

	options := fshc.DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if !options.Version.IsValid() {
		return nil, fmt.Errorf("unsupported FHIR version: %s", options.Version)
	}
	if defs == nil {
		defs = loader.NewInMemoryDefinitionStore(options.DefinitionCacheSize)
	}
	if tank.Config.Canonical == "" {
		tank.Config.Canonical = options.Canonical
	} else {
		options.Canonical = tank.Config.Canonical
	}

	return &Compiler{
		tank:    tank,
		defs:    defs,
		options: options,
		log:     logger.Default(),
	}, nil
}

// SetLogger replaces the compiler's logger.
func (c *Compiler) SetLogger(l *logger.Logger) {
	if l != nil {
		c.log = l
	}
}

// Definitions exposes the external definition store, for loading core
// package content before compiling.
func (c *Compiler) Definitions() *loader.InMemoryDefinitionStore {
	return c.defs
}

// Fisher returns the cross-document entity resolver over the compiler's
// tank. The resolver is shared across Compile calls; only export state is
// per-session.
func (c *Compiler) Fisher() *fishing.Fisher {
	if c.fisher == nil {
		c.fisher = fishing.New(c.tank)
		c.fisher.WarnAmbiguous = c.options.WarnOnAmbiguousInstance
	}
	return c.fisher
}

// Compile exports every authored structure in the tank and returns the
// artifacts and diagnostics. Failures are isolated per entity; Compile
// itself only errors on setup problems.
func (c *Compiler) Compile() *fshc.Result {
	session := export.NewSession(c.tank, c.Fisher(), c.defs, c.defs, c.options)
	session.SetLogger(c.log)

	c.log.Info("compiling %d structures (canonical %s, FHIR %s)",
		len(c.tank.Structures()), c.options.Canonical, c.options.Version)
	if name, pkg, ok := c.options.Version.CorePackage(); ok {
		c.log.Debug("resolving base definitions against %s#%s", name, pkg)
	}

	result := session.Export()
	c.lastMetrics = session.Metrics()

	snap := c.lastMetrics.Snapshot()
	c.log.Info("compiled %d artifacts, %d errors, %d warnings",
		len(result.Artifacts), result.ErrorCount(), result.WarningCount())
	c.log.Debug("fishes: %d (%d missed), exports: %d ok / %d failed",
		snap.FishCalls, snap.FishMisses, snap.EntitiesExported, snap.EntitiesFailed)

	return result
}

// Metrics returns the metrics collected by the most recent Compile call,
// or nil before the first call.
func (c *Compiler) Metrics() *fshc.Metrics {
	return c.lastMetrics
}

// maxParentHops bounds authored parent-chain walks against cycles.
const maxParentHops = 64

// FishForFHIR resolves an identifier against the tank first and the
// external definition store second, returning the matched type record.
// For authored profiles the record's Code is the base type the profile
// ultimately constrains.
func (c *Compiler) FishForFHIR(identifier string) (service.TypeRecord, bool) {
	md, ok := c.Fisher().FishForMetadata(identifier)
	if !ok {
		return c.defs.Resolve(identifier)
	}

	rec := service.TypeRecord{URL: md.URL}
	switch md.Kind {
	case fsh.KindLogical:
		rec.Code = md.SDType
		rec.Kind = service.KindLogical
		rec.Derivation = "specialization"
	case fsh.KindResource:
		rec.Code = md.ID
		rec.Kind = service.KindResource
		rec.Derivation = "specialization"
	case fsh.KindExtension:
		rec.Code = "Extension"
		rec.Kind = service.KindComplexType
		rec.Derivation = "constraint"
	case fsh.KindProfile:
		rec.Derivation = "constraint"
		if base, found := c.baseRecord(md.Parent); found {
			rec.Code = base.Code
			rec.Kind = base.Kind
		}
	default:
		rec.Code = md.ResourceType
	}
	return rec, true
}

// baseRecord walks an authored parent chain until it reaches an external
// definition or an authored specialization and returns that base's record.
func (c *Compiler) baseRecord(parent string) (service.TypeRecord, bool) {
	for hops := 0; parent != "" && hops < maxParentHops; hops++ {
		if rec, ok := c.defs.Resolve(c.Fisher().ResolveAlias(parent)); ok {
			return rec, true
		}
		md, ok := c.Fisher().FishForMetadata(parent)
		if !ok {
			return service.TypeRecord{}, false
		}
		switch md.Kind {
		case fsh.KindResource:
			return service.TypeRecord{Code: md.ID, URL: md.URL, Kind: service.KindResource}, true
		case fsh.KindLogical:
			return service.TypeRecord{Code: md.SDType, URL: md.URL, Kind: service.KindLogical}, true
		}
		parent = md.Parent
	}
	return service.TypeRecord{}, false
}
