package evidence

import (
	"regexp"
	"strings"

	"github.com/tarkyaio/tarka/internal/models"
)

// ecrHostPattern matches {account}.dkr.ecr.{region}.amazonaws.com, the ECR
// registry host shape (spec.md §4.2 Image reference parser).
var ecrHostPattern = regexp.MustCompile(`^(\d{12})\.dkr\.ecr\.([a-z0-9-]+)\.amazonaws\.com$`)

// ParseImageRef splits a container image reference of the form
// registry/repo:tag@digest into its parts, detecting ECR registries.
// Tolerant of missing registry (defaults to docker.io), missing tag
// (defaults to "latest"), and missing digest.
func ParseImageRef(ref string) models.ImagePullDiagnostics {
	out := models.ImagePullDiagnostics{ImageRef: ref}
	s := strings.TrimSpace(ref)
	if s == "" {
		return out
	}

	if at := strings.Index(s, "@"); at >= 0 {
		out.Digest = s[at+1:]
		s = s[:at]
	}

	repoAndTag := s
	tag := "latest"
	// Only split on the last colon if it comes after the last slash,
	// otherwise a colon is part of a registry:port, not a tag separator.
	lastSlash := strings.LastIndex(s, "/")
	lastColon := strings.LastIndex(s, ":")
	if lastColon > lastSlash {
		tag = s[lastColon+1:]
		repoAndTag = s[:lastColon]
	}
	out.Tag = tag

	registry := "docker.io"
	repository := repoAndTag
	if idx := strings.Index(repoAndTag, "/"); idx >= 0 {
		candidate := repoAndTag[:idx]
		if looksLikeRegistryHost(candidate) {
			registry = candidate
			repository = repoAndTag[idx+1:]
		}
	}
	out.Registry = registry
	out.Repository = repository

	if m := ecrHostPattern.FindStringSubmatch(registry); m != nil {
		out.IsECR = true
		out.ECRAccountID = m[1]
		out.ECRRegion = m[2]
	}
	return out
}

// looksLikeRegistryHost approximates Docker's own heuristic: a path
// component is a registry host (not a Docker Hub namespace) if it contains
// a "." or ":" or is exactly "localhost".
func looksLikeRegistryHost(s string) bool {
	return strings.Contains(s, ".") || strings.Contains(s, ":") || s == "localhost"
}

// ImagePullErrorBucket classifies the shape of an image-pull failure
// message into one of {not_found, auth, tls, network, unknown} (spec.md
// §4.2 pod_not_healthy image-pull diagnostics).
func ImagePullErrorBucket(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "not found") || strings.Contains(m, "manifest unknown") || strings.Contains(m, "repository does not exist"):
		return "not_found"
	case strings.Contains(m, "unauthorized") || strings.Contains(m, "authentication required") || strings.Contains(m, "access denied") || strings.Contains(m, "denied:"):
		return "auth"
	case strings.Contains(m, "x509") || strings.Contains(m, "certificate") || strings.Contains(m, "tls"):
		return "tls"
	case strings.Contains(m, "timeout") || strings.Contains(m, "connection refused") || strings.Contains(m, "no route to host") || strings.Contains(m, "dial tcp"):
		return "network"
	default:
		return "unknown"
	}
}
