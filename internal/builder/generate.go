package builder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/robert-at-pretension-io/fabric-interchange/internal/config"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/policy"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/validator"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/wireformat"
)

// DocumentValidator checks a finished document against its contract
type DocumentValidator interface {
	ValidateDocument(doc *device.Document) error
}

// Auditor returns the integrity violations of a finished document
type Auditor interface {
	Audit(ctx context.Context, doc *device.Document) ([]string, error)
}

// Verify runs the contract check and the integrity audit concurrently. Either
// may be nil. The first failure cancels the other.
func Verify(ctx context.Context, doc *device.Document, v DocumentValidator, a Auditor) error {
	g, gctx := errgroup.WithContext(ctx)
	if v != nil {
		g.Go(func() error {
			return v.ValidateDocument(doc)
		})
	}
	if a != nil {
		g.Go(func() error {
			violations, err := a.Audit(gctx, doc)
			if err != nil {
				return fmt.Errorf("integrity audit: %w", err)
			}
			if len(violations) > 0 {
				return fmt.Errorf("integrity audit found %d violations:\n  %s",
					len(violations), strings.Join(violations, "\n  "))
			}
			return nil
		})
	}
	return g.Wait()
}

// Generate validates dev, builds its document, verifies it and writes it to
// outPath. Nothing is written unless every step succeeds.
func (b *Builder) Generate(ctx context.Context, dev *fabric.Device, outPath string) (*device.Document, error) {
	cfg := b.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log := b.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var docValidator DocumentValidator
	if cfg.SchemaValidation() {
		v, err := validator.New()
		if err != nil {
			return nil, fmt.Errorf("loading schemas: %w", err)
		}
		if err := v.ValidateFabric(dev); err != nil {
			return nil, err
		}
		docValidator = v
	}

	doc, err := b.Build(ctx, dev)
	if err != nil {
		return nil, err
	}

	var auditor Auditor
	if cfg.Validation.Audit {
		a, err := policy.New(ctx, cfg.Validation.PolicyDir)
		if err != nil {
			return nil, fmt.Errorf("loading integrity policy: %w", err)
		}
		auditor = a
	}

	start := time.Now()
	if err := Verify(ctx, doc, docValidator, auditor); err != nil {
		return nil, err
	}
	if docValidator != nil || auditor != nil {
		log.WithField("duration", time.Since(start)).Debug("document verified")
	}

	if err := wireformat.WriteFile(outPath, doc, cfg.CompressOutput()); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"path":       outPath,
		"compressed": cfg.CompressOutput(),
	}).Info("device document written")
	return doc, nil
}
