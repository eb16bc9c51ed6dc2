package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc builds the proxy selector for the verification HTTP clients.
// Explicit proxy settings win; otherwise the standard environment variables
// apply. Firms routing outbound traffic through a gateway set these in config.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
