package releasedao

import (
	"testing"
)

// Unit tests for key types

func TestNewPK(t *testing.T) {
	tests := []struct {
		name string
		repo string
		env  string
		want PK
	}{
		{
			name: "valid repo and env",
			repo: "name-tracker",
			env:  "dev",
			want: PK("name-tracker/dev"),
		},
		{
			name: "prod environment",
			repo: "my-service",
			env:  "prod",
			want: PK("my-service/prod"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPK(tt.repo, tt.env)
			if got != tt.want {
				t.Errorf("NewPK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePK(t *testing.T) {
	tests := []struct {
		name     string
		pk       PK
		wantRepo string
		wantEnv  string
		wantErr  bool
	}{
		{
			name:     "valid PK",
			pk:       PK("name-tracker/dev"),
			wantRepo: "name-tracker",
			wantEnv:  "dev",
		},
		{
			name:    "invalid PK - no slash",
			pk:      PK("name-tracker"),
			wantErr: true,
		},
		{
			name:    "invalid PK - too many slashes",
			pk:      PK("name/tracker/dev"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, env, err := ParsePK(tt.pk)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePK() error = %v, wantErr %v", err, tt.wantErr)
			}
			if repo != tt.wantRepo {
				t.Errorf("ParsePK() repo = %v, want %v", repo, tt.wantRepo)
			}
			if env != tt.wantEnv {
				t.Errorf("ParsePK() env = %v, want %v", env, tt.wantEnv)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		id      ID
		wantPK  PK
		wantSK  string
		wantErr bool
	}{
		{
			name:   "valid ID",
			id:     ID("name-tracker/dev:2HFj3kLmNoPqRsTuVwXy"),
			wantPK: PK("name-tracker/dev"),
			wantSK: "2HFj3kLmNoPqRsTuVwXy",
		},
		{
			name:    "invalid ID - no colon",
			id:      ID("name-tracker/dev"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk, sk, err := ParseID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if pk != tt.wantPK {
				t.Errorf("ParseID() pk = %v, want %v", pk, tt.wantPK)
			}
			if sk != tt.wantSK {
				t.Errorf("ParseID() sk = %v, want %v", sk, tt.wantSK)
			}
		})
	}
}

func TestRecordGetID(t *testing.T) {
	r := Record{PK: NewPK("name-tracker", "prod"), SK: "2HFj3kLmNoPqRsTuVwXy"}
	if got, want := r.GetID(), ID("name-tracker/prod:2HFj3kLmNoPqRsTuVwXy"); got != want {
		t.Errorf("GetID() = %v, want %v", got, want)
	}

	// Latest pointer records carry an explicit ID.
	r = Record{PK: NewPK("latest", "prod"), SK: "name-tracker/prod", ID: ID("name-tracker/prod:abc")}
	if got, want := r.GetID(), ID("name-tracker/prod:abc"); got != want {
		t.Errorf("GetID() = %v, want %v", got, want)
	}
}

func TestTableName(t *testing.T) {
	if got, want := TableName("prod"), "prod-shipway-releases"; got != want {
		t.Errorf("TableName() = %v, want %v", got, want)
	}
}
