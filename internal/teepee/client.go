// Package teepee talks to the Tee-Pee JSF portal: it keeps the session cookie,
// performs the ViewState login handshake and issues the plain and partial
// (AJAX) postbacks the scraper is built on.
package teepee

import (
	"context"
	"fmt"
	"math"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"teepee-scraper/internal/components/assert"
	"teepee-scraper/internal/components/telemetry"
	"teepee-scraper/internal/credentials"
	"teepee-scraper/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("teepee-scraper/internal/teepee")

const (
	report_client_get            = "client.get"
	report_client_post_form      = "client.post-form"
	report_client_get_view_state = "client.get-view-state"
	report_client_login          = "client.login"
)

const (
	DefaultBaseUrl   = "https://skauting.tee-pee.com"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = 30 * time.Second

	LoginPath = "/login"
	// LoginFailedMessage is what the portal renders after a rejected login.
	// Any other response to the login postback counts as success.
	LoginFailedMessage = "Nesprávne používateľské meno alebo heslo"
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond limits how fast requests are sent, 0 means no limit.
	RequestsPerSecond float64
	CloudflareBypass  bool
	// DumpOutput receives every request/response pair when set.
	DumpOutput restyutil.InstrumentOutput
}

type Client struct {
	baseUrl  *url.URL
	http     *resty.Client
	tel      telemetry.API
	loggedIn bool
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("teepee_client", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseUrl)
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	if opts.RequestsPerSecond > 0 {
		// burst of at least 1 so that no request is ever refused outright
		burst := int(math.Max(1, math.Ceil(opts.RequestsPerSecond)))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.DumpMessages(httpClient, opts.DumpOutput)

	return &Client{
		baseUrl: baseUrl,
		http:    httpClient,
		tel:     tel,
	}, nil
}

// URL resolves path against the base url.
func (c *Client) URL(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return c.baseUrl.String() + path
	}
	return c.baseUrl.ResolveReference(ref).String()
}

// LoggedIn reports whether the last call to Login succeeded.
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

func (c *Client) execute(ctx context.Context, req *resty.Request, method, target string) (string, error) {
	res, err := req.SetContext(ctx).Execute(method, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, target, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("%w: %s %s: %s", ErrNetwork, method, target, res.Status())
	}
	body := res.Body()
	if !utf8.Valid(body) {
		return "", fmt.Errorf("%w: %s %s: response body is not valid utf-8", ErrNetwork, method, target)
	}
	return string(body), nil
}

// Get fetches target, a path relative to the base url or an absolute url,
// and returns the response body.
func (c *Client) Get(ctx context.Context, target string) (string, error) {
	body, err := c.execute(ctx, c.http.R(), "GET", target)
	if err != nil {
		c.tel.ReportBroken(report_client_get, err, target)
		return "", err
	}
	return body, nil
}

func (c *Client) postForm(ctx context.Context, target string, form Form, headers map[string]string) (string, error) {
	req := c.http.R().
		SetHeader("content-type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetHeaders(headers).
		SetBody(form.Encode())
	body, err := c.execute(ctx, req, "POST", target)
	if err != nil {
		c.tel.ReportBroken(report_client_post_form, err, target)
		return "", err
	}
	return body, nil
}

// PostForm submits form to target as a regular (full page) postback.
func (c *Client) PostForm(ctx context.Context, target string, form Form) (string, error) {
	return c.postForm(ctx, target, form, nil)
}

// PostPartial submits form to target as a JSF AJAX partial postback, the
// response is a <partial-response> document instead of a page.
func (c *Client) PostPartial(ctx context.Context, target string, form Form) (string, error) {
	return c.postForm(ctx, target, form, map[string]string{
		"Faces-Request":    "partial/ajax",
		"X-Requested-With": "XMLHttpRequest",
	})
}

// ExtractViewState returns the ViewState token of a rendered page.
func ExtractViewState(doc *goquery.Document) (string, error) {
	viewState, ok := doc.Find(fmt.Sprintf(`input[name="%s"]`, ViewStateField)).First().Attr("value")
	if !ok || viewState == "" {
		return "", ErrMissingToken
	}
	return viewState, nil
}

// GetViewState fetches target and returns the ViewState token it was
// rendered with.
func (c *Client) GetViewState(ctx context.Context, target string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:GetViewState")
	defer span.End()

	body, err := c.Get(ctx, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page")
		return "", err
	}
	viewState, err := ExtractViewState(doc)
	if err != nil {
		c.tel.ReportBroken(report_client_get_view_state, err, target)
		span.SetStatus(codes.Error, "failed to find view state")
		return "", fmt.Errorf("%s: %w", target, err)
	}
	return viewState, nil
}

// Login exchanges the login page's ViewState and cred for a session cookie.
// The password is resolved before anything is sent, so a credential without
// one fails with credentials.ErrNoPassword and no network traffic. When login
// fails the session from before the call is kept.
func (c *Client) Login(ctx context.Context, cred credentials.Credential) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	password, err := cred.Password()
	if err != nil {
		span.SetStatus(codes.Error, "failed to resolve password")
		return err
	}

	previousJar := c.http.GetClient().Jar
	wasLoggedIn := c.loggedIn
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.http.SetCookieJar(jar)
	c.loggedIn = false

	err = c.login(ctx, cred.Username(), password)
	if err != nil {
		c.http.SetCookieJar(previousJar)
		c.loggedIn = wasLoggedIn
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		return err
	}

	c.loggedIn = true
	c.tel.ReportDebug("logged in", cred.Username())
	return nil
}

func (c *Client) login(ctx context.Context, username, password string) error {
	viewState, err := c.GetViewState(ctx, LoginPath)
	if err != nil {
		return fmt.Errorf("login page: %w", err)
	}

	body, err := c.PostForm(ctx, LoginPath, LoginForm(username, password, viewState))
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("login postback: %w", err), username)
		return fmt.Errorf("login postback: %w", err)
	}

	if strings.Contains(body, LoginFailedMessage) {
		c.tel.ReportWarning(report_client_login, ErrAuthenticationFailed, username)
		return ErrAuthenticationFailed
	}
	return nil
}
