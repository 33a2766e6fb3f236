package teepee

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginForm(t *testing.T) {
	form := LoginForm("jozko", "p@ss word&", "vs:1")
	require.Equal(
		t,
		"loginForm=loginForm&usernameId=jozko&passwordId=p%40ss+word%26&loginBtnId=&javax.faces.ViewState=vs%3A1",
		form.Encode(),
	)

	parsed, err := url.ParseQuery(form.Encode())
	require.NoError(t, err)
	require.Equal(t, "p@ss word&", parsed.Get("passwordId"))
}

func TestShowAllRowsForm(t *testing.T) {
	widget := "orgUnitDetailsTabViewId:j_idt103"
	form := ShowAllRowsForm(widget, "-123:456")

	names := make([]string, len(form))
	for i, field := range form {
		names[i] = field.Name
	}
	require.Equal(t, []string{
		"javax.faces.partial.ajax",
		"javax.faces.source",
		"javax.faces.partial.execute",
		"javax.faces.partial.render",
		widget + "_pagination",
		widget + "_first",
		widget + "_rows",
		widget + "_rppDD",
		ViewStateField,
	}, names)

	for _, name := range []string{"javax.faces.source", "javax.faces.partial.execute", "javax.faces.partial.render"} {
		value, ok := form.Get(name)
		require.True(t, ok)
		require.Equal(t, widget, value)
	}
	rows, _ := form.Get(widget + "_rows")
	require.Equal(t, ShowAllRows, rows)
	viewState, _ := form.Get(ViewStateField)
	require.Equal(t, "-123:456", viewState)

	_, ok := form.Get("missing")
	require.False(t, ok)
}
