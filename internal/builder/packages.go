package builder

import (
	"github.com/robert-at-pretension-io/fabric-interchange/internal/device"
	"github.com/robert-at-pretension-io/fabric-interchange/internal/fabric"
)

// PadSiteName derives the site a pad bonds to from its side, offset and pio.
// ok is false for pads on no side.
func PadSiteName(pad *fabric.Pad, width, height int) (name string, ok bool, err error) {
	if pad.Side == "" {
		return "", false, nil
	}
	if pad.PIO < 0 || pad.PIO > 1 {
		return "", false, invalidf("pad on side %q offset %d has pio %d outside 0..1", pad.Side, pad.Offset, pad.PIO)
	}
	letter := string(rune('A' + pad.PIO))
	switch pad.Side {
	case "T":
		return SiteName(0, pad.Offset, "PIO"+letter), true, nil
	case "B":
		return SiteName(height-1, pad.Offset, "PIO"+letter), true, nil
	case "L":
		return SiteName(pad.Offset, 0, "PIO"+letter), true, nil
	case "R":
		return SiteName(pad.Offset, width-1, "PIO"+letter), true, nil
	}
	return "", false, invalidf("pad side %q not supported", pad.Side)
}

// buildPackages resolves every bonded pad of every package against the
// realized site set. Pads without a realized site stay unplaced.
func (p *pass) buildPackages() error {
	iodb := &p.dev.IODB
	out := make([]device.Package, len(iodb.Packages))
	for i, pkgName := range iodb.Packages {
		bonded := 0
		for j := range iodb.Pads {
			pad := &iodb.Pads[j]
			if len(pad.Pins) <= i {
				return invalidf("package %q: pad %d lists %d pin labels for %d packages",
					pkgName, j, len(pad.Pins), len(iodb.Packages))
			}
			if pad.Pins[i] != fabric.NotBonded {
				bonded++
			}
		}

		pkg := &out[i]
		pkg.Name = p.ids.ID(pkgName)
		pkg.PackagePins = make([]device.PackagePin, 0, bonded)
		for j := range iodb.Pads {
			pad := &iodb.Pads[j]
			label := pad.Pins[i]
			if label == fabric.NotBonded {
				continue
			}
			pin := device.PackagePin{PackagePin: p.ids.ID(label)}
			site, ok, err := PadSiteName(pad, p.dev.Width, p.dev.Height)
			if err != nil {
				return err
			}
			if ok && p.siteNames[site] {
				siteID := p.ids.ID(site)
				belID := p.ids.ID(p.names.PadBel)
				pin.Site = &siteID
				pin.BEL = &belID
			} else {
				p.log.WithField("package", pkgName).WithField("pin", label).Debug("package pin left unplaced")
			}
			pkg.PackagePins = append(pkg.PackagePins, pin)
		}
	}
	p.doc.Packages = out
	return nil
}
