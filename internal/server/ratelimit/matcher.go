package ratelimit

import (
	"strings"
)

// unlimited is returned for the health check.
var unlimited = EndpointConfig{Path: "/health", Method: "GET"}

// MatchEndpoint returns the rule for a request, or nil when the default limit applies.
// Exact paths win over prefix rules; a rule path ending in "/" matches everything below
// it, so "/api/drafts/" covers every draft key.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == unlimited.Path && method == unlimited.Method {
		rule := unlimited
		return &rule
	}

	var prefix *EndpointConfig
	for i := range configs {
		rule := &configs[i]
		if rule.Method != method {
			continue
		}
		if rule.Path == path {
			return rule
		}
		if prefix == nil && strings.HasSuffix(rule.Path, "/") && strings.HasPrefix(path, rule.Path) {
			prefix = rule
		}
	}
	return prefix
}
