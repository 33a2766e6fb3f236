package teepee

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"teepee-scraper/internal/credentials"
	"teepee-scraper/internal/teepee/teepeetest"
	"teepee-scraper/lib/testutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func newPortal(t testing.TB) *teepeetest.Server {
	server := teepeetest.NewServer(teepeetest.Portal{
		Username: "jozko",
		Password: "hunter2",
		MyUnits:  []uint32{1},
		Units: map[uint32]*teepeetest.Unit{
			1: {Id: 1, Name: "Zbor Orol", Children: []uint32{2}},
			2: {Id: 2, Name: "Rysi"},
		},
	})
	t.Cleanup(server.Close)
	return server
}

func newClient(t testing.TB, baseUrl string) *Client {
	client, err := NewClient(ClientOptions{BaseUrl: baseUrl}, testutil.Telemetry(t))
	require.NoError(t, err)
	return client
}

func newCredential(t testing.TB, username, password string) credentials.Credential {
	cred, err := credentials.New(username, credentials.NewMemoryStore())
	require.NoError(t, err)
	if password != "" {
		require.NoError(t, cred.SetPassword(password))
	}
	return cred
}

func TestExtractViewState(t *testing.T) {
	cases := []struct {
		name   string
		html   string
		expect string
		err    error
	}{
		{
			name:   "present",
			html:   `<form><input type="hidden" name="javax.faces.ViewState" value="-8213:1234" /></form>`,
			expect: "-8213:1234",
		},
		{
			name:   "first of many",
			html:   `<input name="javax.faces.ViewState" value="a"><input name="javax.faces.ViewState" value="b">`,
			expect: "a",
		},
		{
			name: "absent",
			html: `<form><input type="hidden" name="other" value="x" /></form>`,
			err:  ErrMissingToken,
		},
		{
			name: "no value",
			html: `<input type="hidden" name="javax.faces.ViewState" />`,
			err:  ErrMissingToken,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(test.html))
			require.NoError(t, err)
			viewState, err := ExtractViewState(doc)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expect, viewState)
		})
	}
}

func TestLogin(t *testing.T) {
	portal := newPortal(t)
	client := newClient(t, portal.URL)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, newCredential(t, "jozko", "hunter2")))
	require.True(t, client.LoggedIn())

	requests := portal.Requests()
	require.Len(t, requests, 2)
	require.Equal(t, "GET", requests[0].Method)
	require.Equal(t, "/login", requests[0].Path)
	require.Equal(t, "POST", requests[1].Method)
	require.Equal(t, "loginForm", requests[1].Form.Get("loginForm"))
	require.Equal(t, "jozko", requests[1].Form.Get("usernameId"))
	require.Equal(t, "hunter2", requests[1].Form.Get("passwordId"))
	require.NotEmpty(t, requests[1].Form.Get(ViewStateField))

	body, err := client.Get(ctx, "/user/profile#data")
	require.NoError(t, err)
	require.Contains(t, body, "Moje jednotky")
}

func TestLoginWithoutPassword(t *testing.T) {
	portal := newPortal(t)
	client := newClient(t, portal.URL)

	err := client.Login(context.Background(), newCredential(t, "jozko", ""))
	require.ErrorIs(t, err, credentials.ErrNoPassword)
	require.False(t, client.LoggedIn())
	require.Empty(t, portal.Requests())
}

func TestLoginRejected(t *testing.T) {
	portal := newPortal(t)
	client := newClient(t, portal.URL)
	ctx := context.Background()

	err := client.Login(ctx, newCredential(t, "jozko", "wrong"))
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	require.False(t, client.LoggedIn())

	// not logged in, the portal sends us back to the login page
	body, err := client.Get(ctx, "/user/profile")
	require.NoError(t, err)
	require.NotContains(t, body, "Moje jednotky")
}

func TestLoginFailureKeepsSession(t *testing.T) {
	portal := newPortal(t)
	client := newClient(t, portal.URL)
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, newCredential(t, "jozko", "hunter2")))
	err := client.Login(ctx, newCredential(t, "jozko", "wrong"))
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	require.True(t, client.LoggedIn())

	body, err := client.Get(ctx, "/user/profile")
	require.NoError(t, err)
	require.Contains(t, body, "Moje jednotky")
}

func TestLoginNetworkError(t *testing.T) {
	portal := teepeetest.NewServer(teepeetest.Portal{
		Username:  "jozko",
		Password:  "hunter2",
		FailLogin: http.StatusServiceUnavailable,
	})
	defer portal.Close()
	client := newClient(t, portal.URL)

	err := client.Login(context.Background(), newCredential(t, "jozko", "hunter2"))
	require.ErrorIs(t, err, ErrNetwork)
	require.NotErrorIs(t, err, ErrAuthenticationFailed)
	require.False(t, client.LoggedIn())

	portal.Close()
	err = client.Login(context.Background(), newCredential(t, "jozko", "hunter2"))
	require.ErrorIs(t, err, ErrNetwork)
}

func TestLoginMissingToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><form id="loginForm"></form></body></html>`))
	}))
	defer server.Close()
	client := newClient(t, server.URL)

	err := client.Login(context.Background(), newCredential(t, "jozko", "hunter2"))
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestGetInvalidUtf8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{'o', 'k', 0xff, 0xfe})
	}))
	defer server.Close()
	client := newClient(t, server.URL)

	_, err := client.Get(context.Background(), "/")
	require.ErrorIs(t, err, ErrNetwork)
}

func TestGetCancelled(t *testing.T) {
	portal := newPortal(t)
	client := newClient(t, portal.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Get(ctx, "/login")
	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPostPartial(t *testing.T) {
	portal := newPortal(t)
	client := newClient(t, portal.URL)
	ctx := context.Background()
	require.NoError(t, client.Login(ctx, newCredential(t, "jozko", "hunter2")))

	viewState, err := client.GetViewState(ctx, "/units/1/detail#units")
	require.NoError(t, err)

	portal.ResetRequests()
	body, err := client.PostPartial(
		ctx,
		"/units/1/detail",
		ShowAllRowsForm(teepeetest.UnitsWidget, viewState),
	)
	require.NoError(t, err)
	require.Contains(t, body, "<partial-response")
	require.Contains(t, body, "Rysi")

	requests := portal.Requests()
	require.Len(t, requests, 1)
	require.Equal(t, "partial/ajax", requests[0].Header.Get("Faces-Request"))
	require.Equal(t, "XMLHttpRequest", requests[0].Header.Get("X-Requested-With"))
	require.Equal(t, "1000", requests[0].Form.Get(teepeetest.UnitsWidget+"_rows"))
}

func TestURL(t *testing.T) {
	client := newClient(t, "https://skauting.tee-pee.com/")
	require.Equal(t, "https://skauting.tee-pee.com/units/7/detail#units", client.URL("/units/7/detail#units"))

	_, err := NewClient(ClientOptions{BaseUrl: "skauting"}, testutil.Telemetry(t))
	require.Error(t, err)
}
