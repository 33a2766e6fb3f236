package telemetry

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactString(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "login form body",
			input:  "loginForm=loginForm&usernameId=jozko&passwordId=hunter2&loginBtnId=",
			expect: "loginForm=loginForm&usernameId=jozko&passwordId=***REDACTED***&loginBtnId=",
		},
		{
			name:   "view state",
			input:  "javax.faces.partial.ajax=true&javax.faces.ViewState=-123%3A456&x=1",
			expect: "javax.faces.partial.ajax=true&javax.faces.ViewState=***REDACTED***&x=1",
		},
		{
			name:   "jsessionid in url",
			input:  "GET /units/1/detail;jsessionid=ABC123",
			expect: "GET /units/1/detail;jsessionid=***REDACTED***",
		},
		{
			name:   "cookie header",
			input:  "Cookie: JSESSIONID=ABC123",
			expect: "Cookie: ***REDACTED***",
		},
		{
			name:   "set cookie header among others",
			input:  "Content-Type: text/html\nSet-Cookie: JSESSIONID=ABC123; Path=/; HttpOnly\nServer: fake",
			expect: "Content-Type: text/html\nSet-Cookie: ***REDACTED***\nServer: fake",
		},
		{
			name:   "nothing to hide",
			input:  "GET /units/1/detail#units 200 OK",
			expect: "GET /units/1/detail#units 200 OK",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expect, RedactString(test.input))
		})
	}
}

func TestRedactingHandler(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&out, nil)))

	logger.Info("sent passwordId=hunter2")
	logger.Info("login", "password", "hunter2", "user", "jozko")
	logger.Info("posted", "body", "usernameId=jozko&passwordId=hunter2")
	logger.Error("failed", "err", fmt.Errorf("login postback: %w", errors.New("passwordId=hunter2 rejected")))
	logger.Info("request", slog.Group("req",
		slog.String("cookie", "JSESSIONID=s3cr3t"),
		slog.String("path", "/login"),
	))
	logger.With("session", "s3cr3t").Info("scoped")
	logger.WithGroup("form").Info("field", "viewstate", "vs-77191")

	logged := out.String()
	require.NotContains(t, logged, "hunter2")
	require.NotContains(t, logged, "s3cr3t")
	require.NotContains(t, logged, "vs-77191")

	require.Contains(t, logged, "password="+MaskValue)
	require.Contains(t, logged, "user=jozko")
	require.Contains(t, logged, "req.path=/login")
	require.Contains(t, logged, "req.cookie="+MaskValue)
	require.Contains(t, logged, "session="+MaskValue)
	require.Contains(t, logged, "form.viewstate="+MaskValue)
}
