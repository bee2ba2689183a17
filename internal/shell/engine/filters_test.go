package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleRecords() []ContainerRecord {
	return []ContainerRecord{
		{
			ID:     "c1",
			Names:  []string{"/acme_traefik_1"},
			Image:  "traefik:v3.0",
			State:  ContainerStateRunning,
			Labels: map[string]string{"com.docker.compose.project": "acme"},
		},
		{
			ID:     "c2",
			Names:  []string{"/acme_traefik_2"},
			Image:  "traefik:v3.0",
			State:  ContainerStateRunning,
			Labels: map[string]string{"com.docker.compose.project": "acme"},
		},
		{
			ID:     "c3",
			Names:  []string{"/acme_db_1"},
			Image:  "postgres:16",
			State:  ContainerStateExited,
			Labels: map[string]string{"com.docker.compose.project": "acme"},
		},
		{
			ID:    "c4",
			Names: []string{"/other_traefik_1"},
			Image: "traefik:v2.11",
			State: ContainerStateRunning,
			// No labels at all; must never match a label filter.
		},
	}
}

func TestFilterByLabel(t *testing.T) {
	got := FilterByLabel(sampleRecords(), "com.docker.compose.project", "acme")
	assert.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, "acme", r.Labels["com.docker.compose.project"])
	}
}

func TestFilterByLabel_NoMatch(t *testing.T) {
	got := FilterByLabel(sampleRecords(), "com.docker.compose.project", "ghost")
	assert.Empty(t, got)
}

func TestFilterByStateAndImage(t *testing.T) {
	got := FilterByStateAndImage(sampleRecords(), ContainerStateRunning, "traefik")
	assert.Len(t, got, 3)

	got = FilterByStateAndImage(sampleRecords(), ContainerStateExited, "postgres")
	assert.Len(t, got, 1)
	assert.Equal(t, "c3", got[0].ID)
}

func TestFilterByStateAndName(t *testing.T) {
	got := FilterByStateAndName(sampleRecords(), ContainerStateRunning, "acme")
	assert.Len(t, got, 2)

	got = FilterByStateAndName(sampleRecords(), ContainerStateRunning, "db")
	assert.Empty(t, got, "db container is exited, not running")
}

func TestPrimaryName(t *testing.T) {
	tests := []struct {
		name   string
		record ContainerRecord
		want   string
	}{
		{"leading slash stripped", ContainerRecord{Names: []string{"/acme_web_1"}}, "acme_web_1"},
		{"no slash", ContainerRecord{Names: []string{"plain"}}, "plain"},
		{"first of several", ContainerRecord{Names: []string{"/first", "/second"}}, "first"},
		{"empty", ContainerRecord{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.PrimaryName())
		})
	}
}
