package smoke

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/apismoke/internal/common"
	"github.com/loykin/apismoke/internal/constants"
	"github.com/loykin/apismoke/internal/envelope"
)

// ClientConfig tunes a Client. Zero values fall back to package defaults.
type ClientConfig struct {
	Reporter *Reporter
	// Validator enables schema checks for calls that name a schema.
	Validator      *envelope.Validator
	DefaultTimeout time.Duration
	PreviewLength  int
}

// Client issues calls against one backend and applies the error ladder.
type Client struct {
	http      *resty.Client
	session   *Session
	reporter  *Reporter
	validator *envelope.Validator
	timeout   time.Duration
	preview   int
	logger    *common.Logger
}

func NewClient(hc *resty.Client, cfg ClientConfig) *Client {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = constants.DefaultCallTimeout
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = constants.PreviewMedium
	}
	if cfg.Reporter == nil {
		cfg.Reporter = NewReporter(nil, false)
	}
	return &Client{
		http:      hc,
		reporter:  cfg.Reporter,
		validator: cfg.Validator,
		timeout:   cfg.DefaultTimeout,
		preview:   cfg.PreviewLength,
		logger:    common.GetLogger().WithComponent("client"),
	}
}

// SetSession attaches the token used by authenticated calls.
func (c *Client) SetSession(s *Session) { c.session = s }

func (c *Client) Session() *Session { return c.session }

// Do issues call and returns its envelope. Failures are *StepError values
// classified in this order: connectivity, redirect, malformed body, HTTP
// status, business code, schema.
func (c *Client) Do(ctx context.Context, call Call) (*envelope.Envelope, error) {
	step := call.Name
	if step == "" {
		step = call.Method + " " + call.Path
	}
	if call.Authenticated && !c.session.Valid() {
		return nil, Errorf(KindAuth, step, "no session token for authenticated call %s", call.Path)
	}

	timeout := call.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := c.http.R().SetContext(ctx)
	if call.Authenticated {
		req.SetHeader("Authorization", c.session.Authorization())
	}
	if len(call.Query) > 0 {
		req.SetQueryParams(call.Query)
	}
	switch {
	case call.Upload != nil:
		req.SetFileReader(call.Upload.Field, call.Upload.FileName, bytes.NewReader(call.Upload.Content))
		if len(call.Upload.Fields) > 0 {
			req.SetMultipartFormData(call.Upload.Fields)
		}
	case call.Body != nil:
		req.SetHeader("Content-Type", "application/json").SetBody(call.Body)
	}

	method := strings.ToUpper(strings.TrimSpace(call.Method))
	if method == "" {
		method = http.MethodGet
	}
	log := c.logger.WithRequest(method, call.Path)
	log.Debug("sending request", "timeout", timeout, "authenticated", call.Authenticated)

	start := time.Now()
	resp, err := req.Execute(method, call.Path)
	if err != nil {
		log.Debug("request failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, Errorf(KindConnectivity, step, "timed out after %s: %w", timeout, err)
		}
		return nil, NewStepError(KindConnectivity, step, err)
	}
	status := resp.StatusCode()
	body := resp.Body()
	log.Debug("response received", "status", status, "bytes", len(body), "duration", time.Since(start))
	c.reporter.Response(status, envelope.PreviewBody(body, c.preview))

	// A redirect (usually to a login page) is a transport failure whatever its body.
	if status >= 300 && status < 400 {
		msg := "redirect"
		if loc := resp.Header().Get("Location"); loc != "" {
			msg = "redirect to " + loc
		}
		return nil, NewStepError(KindTransport, step, &StatusError{StatusCode: status, Message: msg})
	}

	env, err := envelope.Parse(status, body)
	if err != nil {
		return nil, NewStepError(KindMalformed, step, fmt.Errorf("HTTP %d: %w", status, err))
	}
	if status != http.StatusOK {
		return env, NewStepError(KindTransport, step, &StatusError{StatusCode: status, Message: env.Message()})
	}
	if err := env.CheckCode(call.SuccessCode); err != nil {
		return env, NewStepError(KindBusiness, step, err)
	}
	if call.Schema != "" && c.validator != nil {
		if err := c.validator.Validate(call.Schema, env); err != nil {
			return env, NewStepError(KindMalformed, step, err)
		}
	}
	return env, nil
}
