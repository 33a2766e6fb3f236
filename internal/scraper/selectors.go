package scraper

import (
	"fmt"
	"regexp"

	"github.com/andybalholm/cascadia"
)

// Listing describes where one kind of listing lives and how its rows look.
type Listing struct {
	// Path of the page holding the listing, "{id}" is replaced with the
	// id of the unit being scraped.
	Path string `json:"path"`
	// TabSelector matches the tab panel wrapping a paginated listing. It is
	// empty for listings that are not paginated.
	TabSelector  string `json:"tab"`
	RowSelector  string `json:"row"`
	IdSelector   string `json:"id"`
	NameSelector string `json:"name"`
	// Collection is the path segment in front of the id in a row's link,
	// "/{collection}/{id}/detail".
	Collection string `json:"collection"`
}

type Selectors struct {
	MyUnits    Listing `json:"my_units"`
	ChildUnits Listing `json:"child_units"`
	Persons    Listing `json:"persons"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		MyUnits: Listing{
			Path:         "/user/profile#data",
			RowSelector:  `li#j_idt51\:layoutMenu_5 ul li`,
			IdSelector:   "a",
			NameSelector: "a",
			Collection:   "units",
		},
		ChildUnits: Listing{
			Path:         "/units/{id}/detail#units",
			TabSelector:  `div#orgUnitDetailsTabViewId\:units`,
			RowSelector:  `div[id$="_content"] div.ui-g`,
			IdSelector:   "a.ui-link.ui-widget",
			NameSelector: "span.ListItemName",
			Collection:   "units",
		},
		Persons: Listing{
			Path:         "/units/{id}/detail#persons",
			TabSelector:  `div#orgUnitDetailsTabViewId\:persons`,
			RowSelector:  `div[id$="_content"] div.ui-g`,
			IdSelector:   "a.ui-link.ui-widget",
			NameSelector: "span.ListItemName",
			Collection:   "persons",
		},
	}
}

var paginatorSelector = cascadia.MustCompile(`[name$="_rppDD"]`)
var widgetIdRegex = regexp.MustCompile(`^(.+)_rppDD$`)

type listing struct {
	Listing
	tab       cascadia.Selector
	row       cascadia.Selector
	id        cascadia.Selector
	name      cascadia.Selector
	idPattern *regexp.Regexp
}

func compileSelector(field, selector string) (cascadia.Selector, error) {
	if selector == "" {
		return nil, fmt.Errorf("%s selector is empty", field)
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%s selector %q: %w", field, selector, err)
	}
	return matcher, nil
}

func compileListing(l Listing) (listing, error) {
	out := listing{Listing: l}
	if l.Path == "" {
		return listing{}, fmt.Errorf("path is empty")
	}
	if l.Collection == "" {
		return listing{}, fmt.Errorf("collection is empty")
	}

	var err error
	if l.TabSelector != "" {
		out.tab, err = compileSelector("tab", l.TabSelector)
		if err != nil {
			return listing{}, err
		}
	}
	out.row, err = compileSelector("row", l.RowSelector)
	if err != nil {
		return listing{}, err
	}
	out.id, err = compileSelector("id", l.IdSelector)
	if err != nil {
		return listing{}, err
	}
	out.name, err = compileSelector("name", l.NameSelector)
	if err != nil {
		return listing{}, err
	}
	out.idPattern = regexp.MustCompile(fmt.Sprintf(`/%s/(\d+)/detail`, regexp.QuoteMeta(l.Collection)))
	return out, nil
}
