package onvif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ptzproxy/ptzproxy/pkg/tcp"
)

var (
	ErrConnectTimeout = errors.New("onvif: connect timeout")
	ErrAuthFailed     = errors.New("onvif: authentication failed")
)

// HTTPError is an upstream reply the proxy can't turn into a SOAP response.
type HTTPError struct {
	Code   int
	Status string
}

func (e *HTTPError) Error() string {
	return "onvif: wrong response " + e.Status
}

// Client talks to one camera's native ONVIF services over digest-auth HTTP.
// Safe for concurrent use.
type Client struct {
	baseURL string
	user    *url.Userinfo
	client  *http.Client
	agent   string
}

func NewClient(host string, port int, user *url.Userinfo, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/onvif/",
		user:    user,
		client:  &http.Client{Timeout: timeout},
		agent:   "ptzproxy/1.0",
	}
}

// Do posts a SOAP body to the camera's service endpoint and returns the raw
// response bytes. Camera SOAP Faults arrive with HTTP 400/500 and still have
// to flow back through the response rules, so any reply carrying a SOAP
// envelope is returned as data, not as an error.
func (c *Client) Do(ctx context.Context, service string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+service, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.URL.User = c.user
	req.Header.Set("Content-Type", "application/soap+xml; charset=utf-8")
	req.Header.Set("User-Agent", c.agent)

	res, err := tcp.Do(c.client, req)
	if err != nil {
		var ne net.Error
		if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrConnectTimeout, service)
		}
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthFailed
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK && !bytes.Contains(b, []byte("Envelope")) {
		return nil, &HTTPError{Code: res.StatusCode, Status: res.Status}
	}

	return b, nil
}
