package updater

import (
	"errors"
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		binary  string
		want    int
		wantErr bool
	}{
		{"package older", "1.4.0", "1.5.0", -1, false},
		{"package newer", "2.0.0", "1.5.0", 1, false},
		{"same version", "1.5.0", "1.5.0", 0, false},
		{"v prefix on package", "v1.5.0", "1.5.0", 0, false},
		{"v prefix on binary", "1.5.0", "v1.5.0", 0, false},
		{"surrounding space", " 1.5.0 ", "1.5.0", 0, false},
		{"build metadata ignored", "1.5.0+build.7", "1.5.0", 0, false},
		{"release candidate is older", "1.5.0-rc.1", "1.5.0", -1, false},
		{"invalid package", "latest", "1.5.0", 0, true},
		{"invalid binary", "1.5.0", "dev", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareVersions(tt.pkg, tt.binary)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.pkg, tt.binary, got, tt.want)
			}
		})
	}
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		name   string
		app    string
		binary string
		want   bool
	}{
		{"same version", "1.2.0", "1.2.0", true},
		{"v prefix", "v1.2.0", "1.2.0", true},
		{"older package", "1.1.0", "1.2.0", false},
		{"newer package", "1.3.0", "1.2.0", false},
		{"unset binary", "1.1.0", "", true},
		{"non-semver equal", "build-42", "build-42", true},
		{"non-semver different", "build-42", "build-43", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCompatible(tt.app, tt.binary); got != tt.want {
				t.Errorf("IsCompatible(%q, %q) = %v, want %v", tt.app, tt.binary, got, tt.want)
			}
		})
	}
}

func TestActivePackage(t *testing.T) {
	m, _ := newTestManager(t)
	makePackage(t, m, "a", nil)
	writeStatus(t, m, "a", "")

	rec, err := m.ActivePackage("1.0.0")
	if err != nil {
		t.Fatalf("ActivePackage: %v", err)
	}
	if rec.PackageHash != "a" {
		t.Errorf("hash = %s, want a", rec.PackageHash)
	}

	if _, err := m.ActivePackage("2.0.0"); !errors.Is(err, ErrPackageNotFound) {
		t.Errorf("err = %v, want package not found", err)
	}
}
