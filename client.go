package nmi_direct_post

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// Client interacts with the NMI Direct Post transaction and query APIs.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	transactURL string
	queryURL    string
	attrs       AttributeStore
	logger      *zap.Logger
	now         func() time.Time
	newVaultID  func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient makes the client use a shared HTTP client owned by the caller.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAttributeStore sets where customer vault ids are read and written.
// Defaults to an in-memory store.
func WithAttributeStore(s AttributeStore) Option {
	return func(c *Client) { c.attrs = s }
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the time source used for subscription day_of_month.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithVaultIDGenerator overrides how new customer vault ids are generated
// for customers without a GUID.
func WithVaultIDGenerator(gen func() string) Option {
	return func(c *Client) { c.newVaultID = gen }
}

// NewClient creates a new Direct Post client.
// It validates the configuration and, unless an HTTP client is injected,
// prepares one with the configured timeout and optional client certificate.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg,
		transactURL: cfg.DefaultTransactURL(),
		queryURL:    cfg.DefaultQueryURL(),
		logger:      zap.NewNop(),
		now:         time.Now,
		newVaultID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.attrs == nil {
		c.attrs = NewMemoryAttributeStore()
	}

	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		tlsCfg, err := gatewayTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("nmi_direct_post: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
		c.httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

// postForm sends values url-encoded to endpoint and returns the raw body.
func (c *Client) postForm(ctx context.Context, endpoint string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       body,
			Headers:    resp.Header,
		}
	}
	return body, nil
}

// transact posts to the transaction endpoint and classifies the reply.
// Transport failures are logged and folded into an Error outcome.
func (c *Client) transact(ctx context.Context, values url.Values, fields ...zap.Field) (models.Outcome, error) {
	body, err := c.postForm(ctx, c.transactURL, values)
	if err != nil {
		c.logger.Error("nmi direct post error",
			append(fields,
				zap.String("type", transactionType(values)),
				zap.Error(err),
			)...,
		)
		return models.Outcome{Kind: models.OutcomeError, Message: err.Error()}, err
	}

	outcome := classify(ExtractResponseValues(string(body)))
	c.logger.Debug("nmi direct post response",
		append(fields,
			zap.String("type", transactionType(values)),
			zap.String("response", outcome.ResponseCode),
			zap.String("transaction_id", outcome.TransactionID),
		)...,
	)
	return outcome, nil
}

func transactionType(values url.Values) string {
	if t := values.Get("type"); t != "" {
		return t
	}
	return values.Get("recurring")
}
