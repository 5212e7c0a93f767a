package di

import (
	"errors"
	"testing"
)

// Test types for dependency injection
type database struct {
	name string
}

type service struct {
	db  *database
	env string
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		opts    []Option
		wantErr bool
	}{
		{
			name: "creates container with no providers",
			env:  "dev",
		},
		{
			name: "creates container with providers",
			env:  "prod",
			opts: []Option{
				WithProviders(
					func() *database { return &database{name: "releases"} },
					func(db *database, env string) *service { return &service{db: db, env: env} },
				),
			},
		},
		{
			name: "rejects invalid provider",
			env:  "dev",
			opts: []Option{
				WithProviders("not a constructor"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.env, tt.opts...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvIsInjectable(t *testing.T) {
	container, err := New("staging",
		WithProviders(
			func() *database { return &database{name: "releases"} },
			func(db *database, env string) *service { return &service{db: db, env: env} },
		),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	svc := MustGet[*service](container)
	if svc.env != "staging" {
		t.Errorf("env = %q, want %q", svc.env, "staging")
	}
	if svc.db == nil || svc.db.name != "releases" {
		t.Errorf("db not injected: %+v", svc.db)
	}
}

func TestRegionAndHistoryOptions(t *testing.T) {
	container, err := New("dev",
		WithRegion("us-east-1"),
		WithDisableHistory(true),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := MustGet[Region](container); got != Region("us-east-1") {
		t.Errorf("Region = %q, want %q", got, "us-east-1")
	}
	if got := MustGet[DisableHistory](container); !bool(got) {
		t.Error("DisableHistory = false, want true")
	}
}

func TestMustGetPanicsOnMissingDependency(t *testing.T) {
	container, err := New("dev")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGet did not panic for unresolvable dependency")
		}
	}()
	MustGet[*service](container)
}

func TestInvokeError(t *testing.T) {
	container, err := New("dev")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	wantErr := errors.New("boom")
	got := container.Invoke(func(env string) error { return wantErr })
	if !errors.Is(got, wantErr) {
		t.Errorf("Invoke() error = %v, want %v", got, wantErr)
	}
}
