package ratelimit

import (
	"strings"
)

// MatchEndpoint resolves the endpoint rule governing a request path and
// method. Rules match in order of specificity: an exact path or a wildcard
// pattern first, then a trailing-slash prefix. Wildcard patterns use "*" for
// one path segment, so "/batches/*/run" matches "/batches/{id}/run" while
// "/batches/" catches every other batch subresource. Returns nil when no
// rule applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// The health check is never throttled.
	if path == "/health" && method == "GET" {
		return &EndpointConfig{}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if config.Path == path || matchSegments(config.Path, path) {
			return config
		}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			return config
		}
	}

	return nil
}

// matchSegments matches a wildcard pattern segment by segment.
func matchSegments(pattern, path string) bool {
	if !strings.Contains(pattern, "*") {
		return false
	}
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")
	if len(patternParts) != len(pathParts) {
		return false
	}
	for i := range patternParts {
		if patternParts[i] != "*" && patternParts[i] != pathParts[i] {
			return false
		}
	}
	return true
}
