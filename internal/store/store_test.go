package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "kestrel-store-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbDir := filepath.Join(tmpDir, "db")
	s, err := OpenAt(dbDir)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	defer s.Close()

	t.Run("LoadTelemetryDefaultsWhenEmpty", func(t *testing.T) {
		tel, err := s.LoadTelemetry()
		if err != nil {
			t.Fatalf("LoadTelemetry: %v", err)
		}
		if tel.TotalSearches != 0 || tel.TotalPositionsSearch != 0 {
			t.Errorf("expected zero-valued telemetry, got %+v", tel)
		}
	})

	t.Run("RecordSearchAccumulates", func(t *testing.T) {
		if err := s.RecordSearch(1000, "network.bin"); err != nil {
			t.Fatalf("RecordSearch: %v", err)
		}
		if err := s.RecordSearch(500, ""); err != nil {
			t.Fatalf("RecordSearch: %v", err)
		}

		tel, err := s.LoadTelemetry()
		if err != nil {
			t.Fatalf("LoadTelemetry: %v", err)
		}
		if tel.TotalSearches != 2 {
			t.Errorf("expected 2 searches, got %d", tel.TotalSearches)
		}
		if tel.TotalPositionsSearch != 1500 {
			t.Errorf("expected 1500 positions searched, got %d", tel.TotalPositionsSearch)
		}
		if tel.LastNetworkPath != "network.bin" {
			t.Errorf("expected last network path to be preserved across an empty update, got %q", tel.LastNetworkPath)
		}
	})

	t.Run("RecordStartupLeavesCountersAlone", func(t *testing.T) {
		before, err := s.LoadTelemetry()
		if err != nil {
			t.Fatalf("LoadTelemetry: %v", err)
		}

		if err := s.RecordStartup("other.bin"); err != nil {
			t.Fatalf("RecordStartup: %v", err)
		}

		after, err := s.LoadTelemetry()
		if err != nil {
			t.Fatalf("LoadTelemetry: %v", err)
		}
		if after.TotalSearches != before.TotalSearches || after.TotalPositionsSearch != before.TotalPositionsSearch {
			t.Errorf("RecordStartup changed search counters: before %+v, after %+v", before, after)
		}
		if after.LastNetworkPath != "other.bin" {
			t.Errorf("expected RecordStartup to update the network path, got %q", after.LastNetworkPath)
		}
	})
}
