// Package kraken is the read-only Kraken REST client behind
// repository.Exchange. It owns signing, rate limiting and payload decoding.
package kraken

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
	"FolioPull/internal/service/ratelimit"
	xhttp "FolioPull/pkg/http"
	xlogger "FolioPull/pkg/logger"
)

const (
	publicPrefix  = "/0/public/"
	privatePrefix = "/0/private/"

	bucketPublic  = "kraken:public"
	bucketPrivate = "kraken:private"
)

var (
	_ repository.Exchange    = (*Client)(nil)
	_ repository.BatchTicker = (*Client)(nil)
)

// ErrNoCredentials is returned by private endpoints when no API key is configured.
var ErrNoCredentials = errors.New("kraken: api key and secret are required for private endpoints")

// APIError carries the messages of a non-empty error envelope.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	return "kraken: " + strings.Join(e.Messages, "; ")
}

type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Client implements repository.Exchange and repository.BatchTicker.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	signer  *Signer
	limiter *ratelimit.Limiter
	logger  *xlogger.Logger

	// pair name (XXBTZUSD) -> altname (XBTUSD), filled by ListAssetPairs
	mu       sync.RWMutex
	altnames map[string]string
}

type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(k *Client) { k.http = c }
}

// WithLimiter shares a limiter between clients.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(k *Client) { k.limiter = l }
}

func WithLogger(l *xlogger.Logger) Option {
	return func(k *Client) {
		if l != nil {
			k.logger = l
		}
	}
}

// New builds a client from an explicit configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:      cfg,
		limiter:  ratelimit.New(),
		logger:   xlogger.Nop(),
		altnames: make(map[string]string),
	}
	if cfg.HasCredentials() {
		s, err := NewSigner(cfg.APISecret)
		if err != nil {
			return nil, err
		}
		c.signer = s
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout), xhttp.WithUserAgent(cfg.UserAgent))
	}
	return c, nil
}

func (c *Client) public(ctx context.Context, op, method string, query url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx, bucketPublic, c.cfg.PublicLimit.Capacity, c.cfg.PublicLimit.RefillPerSec); err != nil {
		return err
	}
	return c.do(ctx, op, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.cfg.BaseURL + publicPrefix + method,
		QueryParams: query,
	}, dest)
}

func (c *Client) private(ctx context.Context, op, method string, form url.Values, dest interface{}) error {
	if c.signer == nil {
		return &models.UpstreamRequestError{Op: op, Err: ErrNoCredentials}
	}
	if err := c.limiter.Wait(ctx, bucketPrivate, c.cfg.PrivateLimit.Capacity, c.cfg.PrivateLimit.RefillPerSec); err != nil {
		return err
	}

	if form == nil {
		form = url.Values{}
	}
	nonce := c.signer.Nonce()
	form.Set("nonce", nonce)
	postdata := form.Encode()
	path := privatePrefix + method

	return c.do(ctx, op, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.BaseURL + path,
		Headers: map[string]string{
			"API-Key":      c.cfg.APIKey,
			"API-Sign":     c.signer.Sign(path, nonce, postdata),
			"Content-Type": xhttp.ContentTypeForm,
		},
		Body: postdata,
	}, dest)
}

// do unwraps the {error, result} envelope. Transport, status and envelope
// errors become UpstreamRequestError; an undecodable result is a DataShapeError.
func (c *Client) do(ctx context.Context, op string, req *xhttp.RequestOptions, dest interface{}) error {
	var env envelope
	if err := c.http.SendAndParse(ctx, req, &env); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Error("kraken request failed", xlogger.String("op", op), xlogger.Error(err))
		return &models.UpstreamRequestError{Op: op, Err: err}
	}
	if len(env.Error) > 0 {
		err := &APIError{Messages: env.Error}
		c.logger.Error("kraken returned error", xlogger.String("op", op), xlogger.Strings("errors", env.Error))
		return &models.UpstreamRequestError{Op: op, Err: err}
	}
	if dest == nil {
		return nil
	}
	if len(env.Result) == 0 || string(env.Result) == "null" {
		return &models.DataShapeError{Item: op, Field: "result"}
	}

	dec := json.NewDecoder(bytes.NewReader(env.Result))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return &models.DataShapeError{Item: op, Field: "result", Err: err}
	}
	return nil
}

func (c *Client) rememberAltnames(pairs []models.AssetPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range pairs {
		c.altnames[p.Name] = p.Altname
	}
}

func (c *Client) altname(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	alt, ok := c.altnames[name]
	return alt, ok
}

func (c *Client) knowsAltnames() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.altnames) > 0
}
