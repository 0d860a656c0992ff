package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc returns the proxy selector for provider HTTP clients.
// Explicit settings win over HTTP_PROXY, HTTPS_PROXY and NO_PROXY. An explicit
// HTTP proxy also serves HTTPS when no HTTPS proxy is given. Loopback hosts
// such as a local Ollama are never proxied.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpsProxy == "" {
		httpsProxy = httpProxy
	}

	env := httpproxy.FromEnvironment()
	cfg := httpproxy.Config{
		HTTPProxy:  firstNonEmpty(httpProxy, env.HTTPProxy),
		HTTPSProxy: firstNonEmpty(httpsProxy, env.HTTPSProxy),
		NoProxy:    firstNonEmpty(noProxy, env.NoProxy),
		CGI:        env.CGI,
	}
	proxy := cfg.ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
