// Package naming derives logical compose service names from container
// metadata. Pure functions, no I/O.
package naming

import (
	"strings"
)

// LabelComposeService is the label compose stamps on containers with the
// service name they belong to.
const LabelComposeService = "com.docker.compose.service"

// =============================================================================
// Resolvers
// =============================================================================

// Resolver attempts to derive a service name from a container's label map
// and primary name. It returns the name and whether it could resolve one.
type Resolver func(labels map[string]string, containerName string) (string, bool)

// FromServiceLabel resolves from the compose service label when present.
func FromServiceLabel(labels map[string]string, _ string) (string, bool) {
	if labels == nil {
		return "", false
	}
	name, ok := labels[LabelComposeService]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// FromUnderscoreName resolves the compose v2 container naming convention
// {project}_{service}_{index}: the second-to-last underscore-delimited
// segment is the service name.
func FromUnderscoreName(_ map[string]string, containerName string) (string, bool) {
	parts := strings.Split(containerName, "_")
	if len(parts) < 3 {
		return "", false
	}
	service := parts[len(parts)-2]
	if service == "" || !isNumeric(parts[len(parts)-1]) {
		return "", false
	}
	return service, true
}

// FromDashName resolves the dash-delimited convention
// {...}-{service}-{index}: the segment before a trailing numeric index.
func FromDashName(_ map[string]string, containerName string) (string, bool) {
	parts := strings.Split(containerName, "-")
	if len(parts) < 2 {
		return "", false
	}
	if !isNumeric(parts[len(parts)-1]) {
		return "", false
	}
	service := parts[len(parts)-2]
	if service == "" {
		return "", false
	}
	return service, true
}

// DefaultResolvers is the documented fallback order: service label first,
// then the underscore convention, then the dash convention.
var DefaultResolvers = []Resolver{
	FromServiceLabel,
	FromUnderscoreName,
	FromDashName,
}

// ServiceName runs the resolver chain and falls back to the raw container
// name when no convention matches.
func ServiceName(labels map[string]string, containerName string) string {
	for _, resolve := range DefaultResolvers {
		if name, ok := resolve(labels, containerName); ok {
			return name
		}
	}
	return containerName
}

// Dedupe returns the names with duplicates removed, keeping the first
// occurrence order. Rolling the same logical service twice in one run would
// recreate containers that were already moved to the new version.
func Dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
