package imageref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote(t *testing.T) {
	tests := []struct {
		name      string
		accountID string
		region    string
		repo      string
		tag       string
		want      string
		wantErr   bool
	}{
		{
			name:      "simple name",
			accountID: "123456789012",
			region:    "us-east-1",
			repo:      "name-tracker",
			tag:       "latest",
			want:      "123456789012.dkr.ecr.us-east-1.amazonaws.com/name-tracker:latest",
		},
		{
			name:      "nested repository",
			accountID: "123456789012",
			region:    "eu-west-1",
			repo:      "team/name-tracker",
			tag:       "v42",
			want:      "123456789012.dkr.ecr.eu-west-1.amazonaws.com/team/name-tracker:v42",
		},
		{
			name:      "uppercase repository rejected",
			accountID: "123456789012",
			region:    "us-east-1",
			repo:      "Name-Tracker",
			tag:       "latest",
			wantErr:   true,
		},
		{
			name:      "empty repository rejected",
			accountID: "123456789012",
			region:    "us-east-1",
			repo:      "",
			tag:       "latest",
			wantErr:   true,
		},
		{
			name:      "invalid tag rejected",
			accountID: "123456789012",
			region:    "us-east-1",
			repo:      "name-tracker",
			tag:       "not a tag",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Remote(tt.accountID, tt.region, tt.repo, tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestLocal(t *testing.T) {
	assert.Equal(t, "name-tracker:v1", Local("name-tracker", "v1"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRepo string
		wantTag  string
		wantErr  bool
	}{
		{
			name:     "fully qualified",
			input:    "123456789012.dkr.ecr.us-east-1.amazonaws.com/name-tracker:v1",
			wantRepo: "name-tracker",
			wantTag:  "v1",
		},
		{
			name:     "missing tag defaults to latest",
			input:    "123456789012.dkr.ecr.us-east-1.amazonaws.com/name-tracker",
			wantRepo: "name-tracker",
			wantTag:  "latest",
		},
		{
			name:    "garbage",
			input:   ":::",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRepo, got.Repository)
			assert.Equal(t, tt.wantTag, got.Tag)
		})
	}
}

func TestRegistryHost(t *testing.T) {
	got := RegistryHost("123456789012", "ap-southeast-2")
	assert.Equal(t, "123456789012.dkr.ecr.ap-southeast-2.amazonaws.com", got)
}
