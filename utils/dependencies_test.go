package utils

import (
	"runtime"
	"strings"
	"testing"
)

type fakeGDAL map[string]bool

func (f fakeGDAL) HasDriver(name string) bool { return f[name] }

func TestValidateGDAL(t *testing.T) {
	if err := ValidateGDAL(fakeGDAL{"GTiff": true}, "GTiff"); err != nil {
		t.Errorf("Expected validation to pass when GTiff is registered, got error: %v", err)
	}

	err := ValidateGDAL(fakeGDAL{"PNG": true}, "GTiff")
	if err == nil {
		t.Fatal("Expected validation to fail when GTiff is missing")
	}
	if !strings.Contains(err.Error(), "GTiff") {
		t.Errorf("Expected error to name the missing driver, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Install") && !strings.Contains(err.Error(), "gdal.org") {
		t.Errorf("Expected error message to contain installation instructions, got: %v", err)
	}

	if err := ValidateGDAL(nil, "GTiff"); err == nil {
		t.Error("Expected validation to fail without a GDAL backend")
	}
}

func TestGetInstallationInstructions(t *testing.T) {
	instructions := getInstallationInstructions()

	if instructions == "" {
		t.Error("Installation instructions should not be empty")
	}

	switch runtime.GOOS {
	case "darwin":
		if !strings.Contains(instructions, "brew install gdal") {
			t.Errorf("Expected macOS instructions to mention brew, got: %s", instructions)
		}
	case "linux":
		if !strings.Contains(instructions, "apt-get install") && !strings.Contains(instructions, "dnf install") {
			t.Errorf("Expected Linux instructions to mention package managers, got: %s", instructions)
		}
	case "windows":
		if !strings.Contains(instructions, "OSGeo4W") {
			t.Errorf("Expected Windows instructions to mention OSGeo4W, got: %s", instructions)
		}
	default:
		if !strings.Contains(instructions, "gdal.org") {
			t.Errorf("Expected default instructions to mention gdal.org, got: %s", instructions)
		}
	}
}
