package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseImageRef_DockerHubShorthand(t *testing.T) {
	d := ParseImageRef("nginx:1.25")
	assert.Equal(t, "docker.io", d.Registry)
	assert.Equal(t, "nginx", d.Repository)
	assert.Equal(t, "1.25", d.Tag)
	assert.False(t, d.IsECR)
}

func TestParseImageRef_ECRHost(t *testing.T) {
	d := ParseImageRef("123456789012.dkr.ecr.us-east-1.amazonaws.com/payments/checkout:v3@sha256:abc123")
	assert.True(t, d.IsECR)
	assert.Equal(t, "123456789012", d.ECRAccountID)
	assert.Equal(t, "us-east-1", d.ECRRegion)
	assert.Equal(t, "payments/checkout", d.Repository)
	assert.Equal(t, "v3", d.Tag)
	assert.Equal(t, "sha256:abc123", d.Digest)
}

func TestParseImageRef_RegistryWithPort(t *testing.T) {
	d := ParseImageRef("registry.internal:5000/team/app:latest")
	assert.Equal(t, "registry.internal:5000", d.Registry)
	assert.Equal(t, "team/app", d.Repository)
	assert.Equal(t, "latest", d.Tag)
}

func TestParseImageRef_DefaultsTagToLatest(t *testing.T) {
	d := ParseImageRef("myregistry.example.com/team/app")
	assert.Equal(t, "latest", d.Tag)
}

func TestParseImageRef_EmptyInput(t *testing.T) {
	d := ParseImageRef("")
	assert.Equal(t, "", d.Registry)
	assert.Equal(t, "", d.Repository)
}

func TestImagePullErrorBucket_Classification(t *testing.T) {
	cases := map[string]string{
		"manifest unknown: repository not found":        "not_found",
		"unauthorized: authentication required":         "auth",
		"x509: certificate signed by unknown authority":  "tls",
		"dial tcp 10.0.0.1:443: connection refused":      "network",
		"something completely unexpected happened here":  "unknown",
	}
	for msg, want := range cases {
		assert.Equal(t, want, ImagePullErrorBucket(msg), "message=%q", msg)
	}
}
