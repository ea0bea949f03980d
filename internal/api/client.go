package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/indicompute/indicompute/internal/session"
)

const RequestIDHeader = "X-Request-ID"

// Client issues requests against the backend. It attaches the stored bearer
// token when there is one and clears the store when the backend rejects it.
// There is no retry, caching or de-duplication: every call goes out once.
type Client struct {
	rc    *resty.Client
	store session.Store
	log   *logrus.Entry
}

func NewClient(baseURL string, httpClient *http.Client, store session.Store, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "api")

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(baseURL).
		SetRetryCount(0).
		SetLogger(log)

	return &Client{
		rc:    rc,
		store: store,
		log:   log,
	}
}

type requestOptions struct {
	anonymous bool
}

type RequestOption func(*requestOptions)

// Anonymous sends the request without the bearer token even when one is stored.
func Anonymous() RequestOption {
	return func(o *requestOptions) {
		o.anonymous = true
	}
}

// Request sends body (when non-nil) as JSON and decodes the response into out
// (when non-nil). Non-2xx responses return *Error carrying the raw body;
// transport failures return *NetworkError.
func (c *Client) Request(ctx context.Context, method, endpoint string, body, out any, opts ...RequestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	requestID := uuid.New().String()
	req := c.rc.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, requestID)

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encoding %s %s body", method, endpoint)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}

	authenticated := false
	if !o.anonymous {
		if sess, ok := c.store.Get(); ok {
			req.SetHeader("Authorization", "Bearer "+sess.Token)
			authenticated = true
		}
	}

	start := time.Now()
	resp, err := req.Execute(method, endpoint)
	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"endpoint":   endpoint,
		"request_id": requestID,
		"elapsed":    time.Since(start).Round(time.Millisecond),
	})
	if err != nil {
		log.WithError(err).Debug("request failed")
		return &NetworkError{Method: method, Endpoint: endpoint, Err: err}
	}
	log = log.WithField("status", resp.StatusCode())

	if !resp.IsSuccess() {
		log.Debug("request rejected")
		if resp.StatusCode() == http.StatusUnauthorized && authenticated {
			if err := c.store.Clear(); err != nil {
				log.WithError(err).Warn("clearing rejected session")
			}
		}
		return &Error{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       resp.Body(),
		}
	}
	log.Debug("request ok")

	raw := resp.Body()
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, endpoint)
	}
	return nil
}
