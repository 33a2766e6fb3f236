package scraper

import (
	"testing"

	"teepee-scraper/internal/teepee"

	"github.com/stretchr/testify/require"
)

func TestDecodePartial(t *testing.T) {
	widget := "orgUnitDetailsTabViewId:j_idt103"

	cases := []struct {
		name   string
		body   string
		expect string
		err    error
	}{
		{
			name: "update for widget",
			body: `<?xml version='1.0' encoding='UTF-8'?>
<partial-response id="j_id1"><changes>
<update id="other"><![CDATA[<p>other</p>]]></update>
<update id="orgUnitDetailsTabViewId:j_idt103"><![CDATA[<div>rows</div>]]></update>
<update id="j_id1:javax.faces.ViewState:0"><![CDATA[1:2]]></update>
</changes></partial-response>`,
			expect: "<div>rows</div>",
		},
		{
			name: "no update for widget",
			body: `<partial-response><changes>
<update id="a"><![CDATA[<p>a</p>]]></update>
<update id="j_id1:javax.faces.ViewState:0"><![CDATA[1:2]]></update>
<update id="b"><![CDATA[<p>b</p>]]></update>
</changes></partial-response>`,
			expect: "<p>a</p><p>b</p>",
		},
		{
			name: "bare fragment",
			body: `<div class="ui-g"><br></div>`,
			err:  teepee.ErrNetwork,
		},
		{
			name: "login page",
			body: `<!DOCTYPE html>
<html><body><form id="loginForm"><input name="usernameId"></form></body></html>`,
			err: teepee.ErrNetwork,
		},
		{
			name: "empty body",
			body: "",
			err:  teepee.ErrNetwork,
		},
		{
			name: "server error",
			body: `<partial-response><error><error-name>java.lang.NullPointerException</error-name><error-message>boom</error-message></error></partial-response>`,
			err:  teepee.ErrNetwork,
		},
		{
			name: "session expired",
			body: `<partial-response><redirect url="/login"></redirect></partial-response>`,
			err:  teepee.ErrNetwork,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			markup, err := decodePartial(test.body, widget)
			if test.err != nil {
				require.ErrorIs(t, err, test.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expect, markup)
		})
	}
}
