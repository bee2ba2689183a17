package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Resolver Tests
// =============================================================================

func TestFromServiceLabel(t *testing.T) {
	name, ok := FromServiceLabel(map[string]string{LabelComposeService: "traefik"}, "whatever")
	assert.True(t, ok)
	assert.Equal(t, "traefik", name)

	_, ok = FromServiceLabel(map[string]string{LabelComposeService: ""}, "whatever")
	assert.False(t, ok)

	_, ok = FromServiceLabel(nil, "whatever")
	assert.False(t, ok)
}

func TestFromUnderscoreName(t *testing.T) {
	tests := []struct {
		name      string
		container string
		want      string
		wantOK    bool
	}{
		{"compose v2", "acme_traefik_1", "traefik", true},
		{"higher index", "acme_traefik_12", "traefik", true},
		{"service with project underscore", "my_project_web_1", "web", true},
		{"two segments only", "acme_traefik", "", false},
		{"non numeric index", "acme_traefik_blue", "", false},
		{"empty service segment", "acme__1", "", false},
		{"plain name", "traefik", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromUnderscoreName(nil, tt.container)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromDashName(t *testing.T) {
	tests := []struct {
		name      string
		container string
		want      string
		wantOK    bool
	}{
		{"dash convention", "acme-traefik-1", "traefik", true},
		{"deep prefix", "prod-eu-gateway-3", "gateway", true},
		{"no trailing index", "acme-traefik", "", false},
		{"single segment", "traefik", "", false},
		{"empty service segment", "--2", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromDashName(nil, tt.container)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceName_FallbackOrder(t *testing.T) {
	// Label wins over any name convention.
	got := ServiceName(map[string]string{LabelComposeService: "api"}, "acme_traefik_1")
	assert.Equal(t, "api", got)

	// Underscore convention next.
	got = ServiceName(nil, "acme_traefik_1")
	assert.Equal(t, "traefik", got)

	// Dash convention next.
	got = ServiceName(nil, "acme-traefik-1")
	assert.Equal(t, "traefik", got)

	// Raw name as last resort.
	got = ServiceName(nil, "oddball")
	assert.Equal(t, "oddball", got)
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"traefik", "web", "traefik", "db", "web"})
	assert.Equal(t, []string{"traefik", "web", "db"}, got)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}

func TestDedupe_ReplicasOfOneService(t *testing.T) {
	// Two replicas acme_traefik_1 and acme_traefik_2 both derive "traefik";
	// the rollout loop must see it once.
	names := []string{
		ServiceName(nil, "acme_traefik_1"),
		ServiceName(nil, "acme_traefik_2"),
	}
	assert.Equal(t, []string{"traefik"}, Dedupe(names))
}
