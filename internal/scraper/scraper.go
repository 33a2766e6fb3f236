// Package scraper walks the portal's unit pages and turns their listings
// into objects. Paginated listings are first re-rendered with every row on a
// single page through a JSF partial postback.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"teepee-scraper/internal/components/assert"
	"teepee-scraper/internal/components/telemetry"
	"teepee-scraper/internal/objects"
	"teepee-scraper/internal/teepee"
	"teepee-scraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("teepee-scraper/internal/scraper")

func unitSpanOption(id uint32) trace.SpanStartOption {
	return trace.WithAttributes(attribute.Int64("teepee.unit_id", int64(id)))
}

const (
	report_scraper_my_units    = "scraper.my-units"
	report_scraper_child_units = "scraper.child-units"
	report_scraper_persons     = "scraper.persons"
)

var (
	ErrTabViewNotFound = errors.New("scraper: paginated listing not found")
	ErrMissingId       = errors.New("scraper: row has no id")
	ErrMissingName     = errors.New("scraper: row has no name")
)

// Session is the part of teepee.Client the scraper needs.
type Session interface {
	Get(ctx context.Context, target string) (string, error)
	PostPartial(ctx context.Context, target string, form teepee.Form) (string, error)
}

type Scraper struct {
	session    Session
	tel        telemetry.API
	myUnits    listing
	childUnits listing
	persons    listing
}

// New fails when any of the selectors cannot be compiled.
func New(session Session, selectors Selectors, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(session)
	assert.NotNil(tel)

	s := &Scraper{
		session: session,
		tel:     telemetry.NewScopedAPI("teepee_scraper", tel),
	}
	var err error
	s.myUnits, err = compileListing(selectors.MyUnits)
	if err != nil {
		return nil, fmt.Errorf("my units listing: %w", err)
	}
	s.childUnits, err = compileListing(selectors.ChildUnits)
	if err != nil {
		return nil, fmt.Errorf("child units listing: %w", err)
	}
	s.persons, err = compileListing(selectors.Persons)
	if err != nil {
		return nil, fmt.Errorf("persons listing: %w", err)
	}
	if s.childUnits.tab == nil || s.persons.tab == nil {
		return nil, fmt.Errorf("child unit and person listings are paginated and need a tab selector")
	}
	return s, nil
}

func listingTarget(l listing, unitId uint32) string {
	return strings.ReplaceAll(l.Path, "{id}", strconv.FormatUint(uint64(unitId), 10))
}

func parseDocument(body string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

// findWidgetId returns the client id of the paginated widget inside the
// listing's tab panel, recovered from the name of its rows-per-page control.
func findWidgetId(doc *goquery.Document, l listing) (string, error) {
	paginator := doc.FindMatcher(l.tab).FindMatcher(paginatorSelector).First()
	name, ok := paginator.Attr("name")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTabViewNotFound, l.TabSelector)
	}
	match := widgetIdRegex.FindStringSubmatch(name)
	if match == nil {
		return "", fmt.Errorf("%w: %s", ErrTabViewNotFound, l.TabSelector)
	}
	return match[1], nil
}

// showAllRows fetches the listing page of a unit, then asks the server to
// render every row of the listing at once and returns those rows.
func (s *Scraper) showAllRows(ctx context.Context, l listing, unitId uint32) (*goquery.Selection, error) {
	target := listingTarget(l, unitId)
	body, err := s.session.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}

	widgetId, err := findWidgetId(doc, l)
	if err != nil {
		return nil, err
	}
	// the token must come from the same render the widget id came from
	viewState, err := teepee.ExtractViewState(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	postTarget, _, _ := strings.Cut(target, "#")
	partial, err := s.session.PostPartial(ctx, postTarget, teepee.ShowAllRowsForm(widgetId, viewState))
	if err != nil {
		return nil, err
	}
	markup, err := decodePartial(partial, widgetId)
	if err != nil {
		return nil, err
	}
	fragment, err := parseDocument(markup)
	if err != nil {
		return nil, err
	}
	return fragment.FindMatcher(l.row), nil
}

func (s *Scraper) extractId(row *goquery.Selection, l listing) (uint32, error) {
	href, ok := row.FindMatcher(l.id).First().Attr("href")
	if !ok {
		return 0, ErrMissingId
	}
	match := l.idPattern.FindStringSubmatch(href)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingId, href)
	}
	id, err := strconv.ParseUint(match[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMissingId, href, err)
	}
	return uint32(id), nil
}

func (s *Scraper) extractName(row *goquery.Selection, l listing) (string, error) {
	nodes := row.FindMatcher(l.name).Nodes
	if len(nodes) == 0 {
		return "", ErrMissingName
	}
	name, ok := htmlutil.FirstText(nodes[0])
	if !ok {
		return "", ErrMissingName
	}
	return name, nil
}

// extractRows builds one object per row, in document order. It fails on the
// first malformed row and then returns nothing.
func extractRows[T any, B objects.Builder[T]](s *Scraper, rows *goquery.Selection, l listing, newBuilder func() B) ([]T, error) {
	out := make([]T, 0, rows.Length())
	for i := range rows.Nodes {
		row := rows.Eq(i)

		name, err := s.extractName(row, l)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		id, err := s.extractId(row, l)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, name, err)
		}

		builder := newBuilder()
		builder.SetName(name)
		builder.SetId(id)
		obj, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, name, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

// MyUnits returns the units listed in the logged in user's profile menu.
func (s *Scraper) MyUnits(ctx context.Context) ([]objects.Unit, error) {
	ctx, span := tracer.Start(ctx, "scraper:MyUnits")
	defer span.End()

	body, err := s.session.Get(ctx, s.myUnits.Path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile")
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse profile")
		return nil, err
	}

	units, err := extractRows[objects.Unit](s, doc.FindMatcher(s.myUnits.row), s.myUnits, objects.NewUnitBuilder)
	if err != nil {
		s.tel.ReportBroken(report_scraper_my_units, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract units")
		return nil, err
	}
	s.tel.ReportDebug("scraped my units", len(units))
	return units, nil
}

// ChildUnits scrapes the units directly under parent and appends them to its
// children. Nothing is appended unless every row was scraped.
func (s *Scraper) ChildUnits(ctx context.Context, parent *objects.Unit) error {
	ctx, span := tracer.Start(ctx, "scraper:ChildUnits", unitSpanOption(parent.Id))
	defer span.End()

	rows, err := s.showAllRows(ctx, s.childUnits, parent.Id)
	if err != nil {
		s.tel.ReportBroken(report_scraper_child_units, err, parent.Id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing")
		return err
	}

	parentRef := parent.Ref()
	children, err := extractRows[objects.Unit](s, rows, s.childUnits, func() *objects.UnitBuilder {
		builder := objects.NewUnitBuilder()
		builder.SetParent(parentRef)
		return builder
	})
	if err != nil {
		s.tel.ReportBroken(report_scraper_child_units, err, parent.Id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract units")
		return err
	}

	err = parent.AppendChildren(children...)
	if err != nil {
		s.tel.ReportBroken(report_scraper_child_units, err, parent.Id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append units")
		return err
	}
	s.tel.ReportDebug("scraped child units", parent.Id, len(children))
	return nil
}

// Persons scrapes the persons registered directly in unit and appends them
// to it. Nothing is appended unless every row was scraped.
func (s *Scraper) Persons(ctx context.Context, unit *objects.Unit) error {
	ctx, span := tracer.Start(ctx, "scraper:Persons", unitSpanOption(unit.Id))
	defer span.End()

	rows, err := s.showAllRows(ctx, s.persons, unit.Id)
	if err != nil {
		s.tel.ReportBroken(report_scraper_persons, err, unit.Id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing")
		return err
	}

	persons, err := extractRows[objects.Person](s, rows, s.persons, objects.NewPersonBuilder)
	if err != nil {
		s.tel.ReportBroken(report_scraper_persons, err, unit.Id)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to extract persons")
		return err
	}

	unit.AppendPersons(persons...)
	s.tel.ReportDebug("scraped persons", unit.Id, len(persons))
	return nil
}
