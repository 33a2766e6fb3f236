package teepee

import (
	"net/url"
	"strings"
)

const ViewStateField = "javax.faces.ViewState"

// ShowAllRows is the page size requested when defeating pagination.
const ShowAllRows = "1000"

type Field struct {
	Name  string
	Value string
}

// Form is an application/x-www-form-urlencoded body whose fields are encoded
// in the order they were added. JSF does not care about the order but the
// browser sends them this way and so do we.
type Form []Field

func (f *Form) Add(name, value string) {
	*f = append(*f, Field{Name: name, Value: value})
}

// Get returns the value of the first field called name.
func (f Form) Get(name string) (string, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

func (f Form) Encode() string {
	var out strings.Builder
	for i, field := range f {
		if i > 0 {
			out.WriteByte('&')
		}
		out.WriteString(url.QueryEscape(field.Name))
		out.WriteByte('=')
		out.WriteString(url.QueryEscape(field.Value))
	}
	return out.String()
}

func LoginForm(username, password, viewState string) Form {
	return Form{
		{Name: "loginForm", Value: "loginForm"},
		{Name: "usernameId", Value: username},
		{Name: "passwordId", Value: password},
		{Name: "loginBtnId", Value: ""},
		{Name: ViewStateField, Value: viewState},
	}
}

// ShowAllRowsForm is the partial postback that asks the paginated widget
// with the given client id to re-render itself with every row on one page.
func ShowAllRowsForm(widgetId, viewState string) Form {
	return Form{
		{Name: "javax.faces.partial.ajax", Value: "true"},
		{Name: "javax.faces.source", Value: widgetId},
		{Name: "javax.faces.partial.execute", Value: widgetId},
		{Name: "javax.faces.partial.render", Value: widgetId},
		{Name: widgetId + "_pagination", Value: "true"},
		{Name: widgetId + "_first", Value: "0"},
		{Name: widgetId + "_rows", Value: ShowAllRows},
		{Name: widgetId + "_rppDD", Value: ShowAllRows},
		{Name: ViewStateField, Value: viewState},
	}
}
