package network

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"
)

// ClientFactory creates HTTP clients for outbound webhook delivery.
type ClientFactory struct {
	insecureSkipVerify bool
	testClient         *http.Client // For testing only
}

// NewClientFactory creates a new client factory. insecureSkipVerify disables
// TLS certificate verification and must stay false outside test deployments.
func NewClientFactory(insecureSkipVerify bool) *ClientFactory {
	return &ClientFactory{insecureSkipVerify: insecureSkipVerify}
}

// NewClientFactoryForTest creates a client factory that hands out the given
// http.Client. This is only for use in tests.
func NewClientFactoryForTest(client *http.Client) *ClientFactory {
	return &ClientFactory{testClient: client}
}

// NewHTTPClient creates an http.Client with the given timeout and a bounded
// redirect-follow limit.
func (f *ClientFactory) NewHTTPClient(timeout time.Duration, maxRedirects int) *http.Client {
	if f.testClient != nil {
		return f.testClient
	}

	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	if f.insecureSkipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return client
}
