// Package teepeetest serves a small in-memory imitation of the Tee-Pee portal
// for tests: login, the profile menu and unit detail pages whose listings are
// paginated until a "show all rows" partial postback is made.
package teepeetest

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const (
	SessionCookie = "JSESSIONID"

	UnitsWidget   = "orgUnitDetailsTabViewId:j_idt103"
	PersonsWidget = "orgUnitDetailsTabViewId:orgUnitPersonGridId"

	loginFailed = "Nesprávne používateľské meno alebo heslo"
)

// Defect makes one extra row of a listing malformed.
type Defect int

const (
	DefectNone Defect = iota
	DefectMissingName
	DefectMissingId
)

type Person struct {
	Id   uint32
	Name string
}

type Unit struct {
	Id       uint32
	Name     string
	Children []uint32
	Persons  []Person

	ChildDefect  Defect
	PersonDefect Defect
	// OmitPaginator renders the listings without their rows-per-page
	// control.
	OmitPaginator bool
	// OmitViewState renders the detail page without a ViewState token.
	OmitViewState bool
}

type Portal struct {
	Username string
	Password string
	// MyUnits are listed in the profile menu.
	MyUnits []uint32
	Units   map[uint32]*Unit
	// PageSize is how many rows a listing shows before pagination is
	// defeated, it defaults to 2.
	PageSize int
	// FailLogin makes the login postback answer with the given status.
	FailLogin int
}

type Request struct {
	Method string
	Path   string
	Header http.Header
	Form   url.Values
}

type Server struct {
	*httptest.Server

	portal  Portal
	mutex   sync.Mutex
	counter int
	// issued ViewState tokens and the path of the page they were rendered
	// for
	viewStates map[string]string
	sessions   map[string]bool
	requests   []Request
}

func NewServer(portal Portal) *Server {
	if portal.PageSize <= 0 {
		portal.PageSize = 2
	}
	if portal.Units == nil {
		portal.Units = map[uint32]*Unit{}
	}
	s := &Server{
		portal:     portal,
		viewStates: map[string]string{},
		sessions:   map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/user/profile", s.authenticated(s.handleProfile))
	mux.HandleFunc("/units/", s.authenticated(s.handleUnit))
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// Requests returns every request received so far, in order.
func (s *Server) Requests() []Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) ResetRequests() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.requests = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mutex.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Form:   r.PostForm,
		})
		s.mutex.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueViewState(path string) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.counter++
	token := fmt.Sprintf("%d:-%d", s.counter, 4000+s.counter)
	s.viewStates[token] = path
	return token
}

func (s *Server) validViewState(token, path string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	issuedFor, ok := s.viewStates[token]
	return ok && issuedFor == path
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		s.mutex.Lock()
		ok := err == nil && s.sessions[cookie.Value]
		s.mutex.Unlock()
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func writePage(w http.ResponseWriter, body string) {
	w.Header().Set("content-type", "text/html; charset=UTF-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Tee-Pee</title></head><body>%s</body></html>", body)
}

func viewStateInput(token string) string {
	return fmt.Sprintf(
		`<input type="hidden" name="javax.faces.ViewState" id="j_id1:javax.faces.ViewState:0" value="%s" autocomplete="off" />`,
		html.EscapeString(token),
	)
}

func (s *Server) renderLogin(w http.ResponseWriter, message string) {
	token := s.issueViewState("/login")
	writePage(w, fmt.Sprintf(`<form id="loginForm" name="loginForm" method="post" action="/login">
<span class="ui-messages-error-summary">%s</span>
<input id="usernameId" name="usernameId" type="text" />
<input id="passwordId" name="passwordId" type="password" />
<button id="loginBtnId" name="loginBtnId" type="submit">Prihlásiť</button>
%s
</form>`, html.EscapeString(message), viewStateInput(token)))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderLogin(w, "")
	case http.MethodPost:
		if s.portal.FailLogin != 0 {
			http.Error(w, "unavailable", s.portal.FailLogin)
			return
		}
		if r.PostForm.Get("loginForm") != "loginForm" ||
			!s.validViewState(r.PostForm.Get("javax.faces.ViewState"), "/login") {
			http.Error(w, "javax.faces.application.ViewExpiredException", http.StatusInternalServerError)
			return
		}
		if r.PostForm.Get("usernameId") != s.portal.Username ||
			r.PostForm.Get("passwordId") != s.portal.Password {
			s.renderLogin(w, loginFailed)
			return
		}

		s.mutex.Lock()
		s.counter++
		session := fmt.Sprintf("session-%d", s.counter)
		s.sessions[session] = true
		s.mutex.Unlock()

		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: session, Path: "/", HttpOnly: true})
		writePage(w, `<div id="dashboard">Vitajte</div>`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var items strings.Builder
	for _, id := range s.portal.MyUnits {
		unit, ok := s.portal.Units[id]
		if !ok {
			continue
		}
		fmt.Fprintf(
			&items,
			`<li role="menuitem"><a href="/units/%d/detail" class="ui-menuitem-link"><span class="ui-menuitem-text">%s</span></a></li>`,
			unit.Id, html.EscapeString(unit.Name),
		)
	}
	writePage(w, fmt.Sprintf(`<ul class="layout-menu">
<li id="j_idt51:layoutMenu_4" role="menuitem"><a href="/user/profile"><span>Profil</span></a></li>
<li id="j_idt51:layoutMenu_5" role="menuitem"><a href="#"><span>Moje jednotky</span></a><ul>%s</ul></li>
</ul>
<form id="profileForm">%s</form>`, items.String(), viewStateInput(s.issueViewState(r.URL.Path))))
}

var unitPathRegex = regexp.MustCompile(`^/units/(\d+)/detail$`)

type row struct {
	href string
	name string
}

func (s *Server) rows(unit *Unit, widget string) []row {
	var rows []row
	var defect Defect
	collection := "persons"
	if widget == UnitsWidget {
		collection = "units"
		for _, id := range unit.Children {
			child, ok := s.portal.Units[id]
			if !ok {
				continue
			}
			rows = append(rows, row{href: fmt.Sprintf("/units/%d/detail", child.Id), name: child.Name})
		}
		defect = unit.ChildDefect
	} else {
		for _, person := range unit.Persons {
			rows = append(rows, row{href: fmt.Sprintf("/persons/%d/detail", person.Id), name: person.Name})
		}
		defect = unit.PersonDefect
	}

	switch defect {
	case DefectMissingName:
		rows = append(rows, row{href: fmt.Sprintf("/%s/999999/detail", collection)})
	case DefectMissingId:
		rows = append(rows, row{href: "#", name: "Bez odkazu"})
	}
	return rows
}

func renderRows(rows []row) string {
	var out strings.Builder
	for _, r := range rows {
		out.WriteString(`<div class="ui-g"><div class="ui-g-12 ListItem">`)
		fmt.Fprintf(&out, `<a href="%s" class="ui-link ui-widget">`, html.EscapeString(r.href))
		if r.name != "" {
			fmt.Fprintf(&out, `<span class="ListItemName"> %s </span>`, html.EscapeString(r.name))
		}
		out.WriteString(`</a></div></div>`)
	}
	return out.String()
}

func (s *Server) renderGrid(unit *Unit, widget string, first, rows int) string {
	all := s.rows(unit, widget)
	if first > len(all) {
		first = len(all)
	}
	end := first + rows
	if end > len(all) {
		end = len(all)
	}

	paginator := ""
	if !unit.OmitPaginator {
		paginator = fmt.Sprintf(`<div class="ui-paginator"><select name="%s_rppDD" id="%s_rppDD"><option value="%d" selected="selected">%d</option><option value="1000">1000</option></select></div>`,
			widget, widget, s.portal.PageSize, s.portal.PageSize)
	}
	return fmt.Sprintf(
		`<div id="%s" class="ui-datagrid ui-widget"><div id="%s_content" class="ui-datagrid-content">%s</div>%s</div>`,
		widget, widget, renderRows(all[first:end]), paginator,
	)
}

func (s *Server) handleUnit(w http.ResponseWriter, r *http.Request) {
	match := unitPathRegex.FindStringSubmatch(r.URL.Path)
	if match == nil {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseUint(match[1], 10, 32)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	unit, ok := s.portal.Units[uint32(id)]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		viewState := ""
		if !unit.OmitViewState {
			viewState = viewStateInput(s.issueViewState(r.URL.Path))
		}
		writePage(w, fmt.Sprintf(`<form id="orgUnitDetailForm">
<h1 class="UnitName">%s</h1>
<div id="orgUnitDetailsTabViewId" class="ui-tabs">
<div id="orgUnitDetailsTabViewId:units" class="ui-tabs-panel">%s</div>
<div id="orgUnitDetailsTabViewId:persons" class="ui-tabs-panel">%s</div>
</div>
%s
</form>`,
			html.EscapeString(unit.Name),
			s.renderGrid(unit, UnitsWidget, 0, s.portal.PageSize),
			s.renderGrid(unit, PersonsWidget, 0, s.portal.PageSize),
			viewState,
		))
	case http.MethodPost:
		s.handlePartial(w, r, unit)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePartial(w http.ResponseWriter, r *http.Request, unit *Unit) {
	form := r.PostForm
	widget := form.Get("javax.faces.source")
	if r.Header.Get("Faces-Request") != "partial/ajax" ||
		form.Get("javax.faces.partial.ajax") != "true" ||
		(widget != UnitsWidget && widget != PersonsWidget) ||
		form.Get("javax.faces.partial.render") != widget {
		http.Error(w, "unsupported postback", http.StatusBadRequest)
		return
	}
	if !s.validViewState(form.Get("javax.faces.ViewState"), r.URL.Path) {
		http.Error(w, "javax.faces.application.ViewExpiredException", http.StatusInternalServerError)
		return
	}

	first, err := strconv.Atoi(form.Get(widget + "_first"))
	if err != nil {
		first = 0
	}
	rows, err := strconv.Atoi(form.Get(widget + "_rows"))
	if err != nil || rows <= 0 {
		rows = s.portal.PageSize
	}

	w.Header().Set("content-type", "text/xml; charset=UTF-8")
	fmt.Fprintf(w, `<?xml version='1.0' encoding='UTF-8'?>
<partial-response id="j_id1"><changes><update id="%s"><![CDATA[%s]]></update><update id="j_id1:javax.faces.ViewState:0"><![CDATA[%s]]></update></changes></partial-response>`,
		widget,
		s.renderGrid(unit, widget, first, rows),
		s.issueViewState(r.URL.Path),
	)
}
