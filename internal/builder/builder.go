// Package builder turns a fabric model into a device document in one
// deterministic pass: tile types, canonical site types, the flattened
// wire/node graph, tiles, cell-bel maps, packages and the fixed LUT tables.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/config"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/intern"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/sitetype"
	"github.com/sirupsen/logrus"
)

// PinMapper yields the cell/bel pin maps a site type can host
type PinMapper interface {
	PinMaps(st *fabric.SiteType) []fabric.PinMap
}

// Builder configures generation. The zero value is usable: it takes the
// default configuration, the standard logger and no pin maps.
type Builder struct {
	Config    *config.Config
	PinMapper PinMapper
	Log       logrus.FieldLogger
}

// New creates a builder for cfg
func New(cfg *config.Config, log logrus.FieldLogger) *Builder {
	return &Builder{Config: cfg, Log: log}
}

// pass holds the state of a single Build call
type pass struct {
	dev    *fabric.Device
	names  config.DeviceConfig
	mapper PinMapper
	log    logrus.FieldLogger

	ids       *intern.Table
	siteTypes *sitetype.Table
	n         narrower

	// siteNames is the realized site-name set, filled by the tile stage
	siteNames map[string]bool

	doc *device.Document
}

type stage struct {
	name  string
	run   func() error
	count func() int
}

// Build produces the device document for dev. dev is only read. On error no
// partial document is returned.
func (b *Builder) Build(ctx context.Context, dev *fabric.Device) (*device.Document, error) {
	if dev == nil {
		return nil, fmt.Errorf("%w: no fabric model", ErrInvalidConfiguration)
	}
	cfg := b.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := b.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	mapper := b.PinMapper
	if mapper == nil && dev.PinMaps != nil {
		mapper = dev.PinMaps
	}

	start := time.Now()
	timing, err := newTimingRecorder(start, b.resolveTimingPath())
	if err != nil {
		log.WithError(err).Warn("stage timing disabled")
	}
	defer func() {
		if err := timing.Close(); err != nil {
			log.WithError(err).Warn("stage timing incomplete")
		}
	}()

	p := &pass{
		dev:       dev,
		names:     cfg.Device,
		mapper:    mapper,
		log:       log.WithField("device", dev.Name),
		ids:       intern.New(),
		siteTypes: sitetype.New(),
		doc:       &device.Document{Name: dev.Name},
	}

	stages := []stage{
		{"tile_types", p.buildTileTypes, func() int { return len(p.doc.TileTypes) }},
		{"site_types", p.buildSiteTypes, func() int { return len(p.doc.SiteTypes) }},
		{"nodes", p.buildNodes, func() int { return len(p.doc.Nodes) }},
		{"wire_types", p.buildWireTypes, func() int { return len(p.doc.WireTypes) }},
		{"tiles", p.buildTiles, func() int { return len(p.doc.Tiles) }},
		{"constants", p.buildConstants, func() int { return len(p.doc.Constants.DefaultCellConns) }},
		{"cell_bel_map", p.buildCellBelMap, func() int { return len(p.doc.CellBelMap) }},
		{"packages", p.buildPackages, func() int { return len(p.doc.Packages) }},
		{"lut_definitions", p.buildLUTDefinitions, func() int { return len(p.doc.LUTDefinitions.LUTElements) }},
		{"parameter_defs", p.buildParameterDefs, func() int { return len(p.doc.ParameterDefs.Cells) }},
		{"strings", p.buildStrings, func() int { return len(p.doc.Strings) }},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		err := st.run()
		if err == nil {
			err = p.n.err
		}
		elapsed := time.Since(stageStart)
		if err != nil {
			timing.RecordStage(st.name, stageStart, elapsed, "error", 0)
			return nil, fmt.Errorf("%s: %w", st.name, err)
		}
		count := st.count()
		timing.RecordStage(st.name, stageStart, elapsed, "ok", count)
		p.log.WithFields(logrus.Fields{
			"stage":    st.name,
			"count":    count,
			"duration": elapsed,
		}).Debug("stage complete")
	}

	s := p.doc.Stats()
	p.log.WithFields(logrus.Fields{
		"tile_types": s.TileTypes,
		"site_types": s.SiteTypes,
		"tiles":      s.Tiles,
		"wires":      s.Wires,
		"nodes":      s.Nodes,
		"strings":    s.Strings,
		"duration":   time.Since(start),
	}).Info("device document built")

	return p.doc, nil
}

func (p *pass) internAll(names []string) []uint32 {
	out := make([]uint32, len(names))
	for i, name := range names {
		out[i] = p.ids.ID(name)
	}
	return out
}

func (p *pass) buildStrings() error {
	if err := p.ids.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexOverflow, err)
	}
	p.doc.Strings = p.ids.Strings()
	return nil
}
