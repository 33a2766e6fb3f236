// Package traverse decides which parts of the unit tree get scraped and
// walks it depth first, one request at a time.
package traverse

import (
	"context"
	"fmt"

	"teepee-scraper/internal/components/assert"
	"teepee-scraper/internal/components/telemetry"
	"teepee-scraper/internal/objects"
	"teepee-scraper/lib/textutil"

	"github.com/antzucaro/matchr"
)

const (
	report_traverse_walk  = "traverse.walk"
	report_traverse_cycle = "traverse.cycle"
	report_traverse_units = "traverse.units"
)

const (
	DefaultMatchThreshold = 0.92
	// AllUnits in PersonsFor selects every unit.
	AllUnits = "*"
	// Unlimited as MaxDepth descends until there are no more children.
	Unlimited = -1
)

type Policy struct {
	// MaxDepth is the deepest level whose children are scraped, the roots
	// are level 0 so 0 scrapes only the roots' children.
	MaxDepth int `json:"max_depth"`
	// PersonsFor names the units whose persons are scraped. Names are
	// compared loosely, ignoring case and diacritics.
	PersonsFor []string `json:"persons_for"`
	// MatchThreshold is the Jaro-Winkler similarity a unit name needs to
	// match an entry of PersonsFor, DefaultMatchThreshold when 0.
	MatchThreshold float64 `json:"match_threshold"`
}

func DefaultPolicy() Policy {
	return Policy{MatchThreshold: DefaultMatchThreshold}
}

func (p Policy) threshold() float64 {
	if p.MatchThreshold <= 0 {
		return DefaultMatchThreshold
	}
	return p.MatchThreshold
}

// WantsPersons reports whether the persons of a unit called name should be
// scraped.
func (p Policy) WantsPersons(name string) bool {
	normalized := textutil.NormalizeName(name)
	for _, target := range p.PersonsFor {
		if target == AllUnits {
			return true
		}
		similarity := matchr.JaroWinkler(normalized, textutil.NormalizeName(target), false)
		if similarity >= p.threshold() {
			return true
		}
	}
	return false
}

func (p Policy) descends(depth int) bool {
	return p.MaxDepth < 0 || depth <= p.MaxDepth
}

// Scraper is implemented by scraper.Scraper.
type Scraper interface {
	ChildUnits(ctx context.Context, parent *objects.Unit) error
	Persons(ctx context.Context, unit *objects.Unit) error
}

type walker struct {
	scraper Scraper
	policy  Policy
	tel     telemetry.API
	// ids of the units between the root and the unit being visited
	path map[uint32]bool
}

// Walk scrapes the tree below roots according to policy and returns the
// roots with everything that was scraped attached. Children that repeat an
// ancestor are left out and reported as warnings. On the first error it
// stops and returns the tree as far as it got together with the error, the
// unit that failed has nothing from the failed call attached.
func Walk(ctx context.Context, scraper Scraper, roots []objects.Unit, policy Policy, tel telemetry.API) ([]objects.Unit, error) {
	assert.NotNil(scraper)
	assert.NotNil(tel)

	w := walker{
		scraper: scraper,
		policy:  policy,
		tel:     telemetry.NewScopedAPI("traverse", tel),
		path:    map[uint32]bool{},
	}

	out := make([]objects.Unit, len(roots))
	copy(out, roots)

	total := 0
	for i := range out {
		err := w.visit(ctx, &out[i], 0)
		total += out[i].CountUnits()
		if err != nil {
			w.tel.ReportBroken(report_traverse_walk, err, out[i].Id)
			return out, err
		}
	}
	w.tel.ReportCount(report_traverse_units, int64(total))
	return out, nil
}

func (w walker) visit(ctx context.Context, unit *objects.Unit, depth int) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	if w.policy.WantsPersons(unit.Name) {
		err = w.scraper.Persons(ctx, unit)
		if err != nil {
			return fmt.Errorf("persons of %s: %w", unit, err)
		}
	}
	if !w.policy.descends(depth) {
		return nil
	}

	err = w.scraper.ChildUnits(ctx, unit)
	if err != nil {
		return fmt.Errorf("child units of %s: %w", unit, err)
	}

	w.path[unit.Id] = true
	defer delete(w.path, unit.Id)

	// a unit listed below one of its own ancestors is dropped, the tree
	// never holds a unit inside its own subtree
	children := make([]objects.Unit, 0, len(unit.Children))
	for _, child := range unit.Children {
		if w.path[child.Id] {
			w.tel.ReportWarning(report_traverse_cycle, child.Id, unit.Id)
			continue
		}
		children = append(children, child)
	}
	unit.Children = children

	for i := range unit.Children {
		err = w.visit(ctx, &unit.Children[i], depth+1)
		if err != nil {
			return err
		}
	}
	return nil
}
