package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PDFMARKUP_STORE", "")
	t.Setenv("PDFMARKUP_RASTER_SCALE", "")
	cfg := Load()
	if cfg.Store != "memory" {
		t.Fatalf("Store = %q", cfg.Store)
	}
	if cfg.RasterScale != 4 {
		t.Fatalf("RasterScale = %d", cfg.RasterScale)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PDFMARKUP_STORE", "redis")
	t.Setenv("PDFMARKUP_RASTER_SCALE", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("PDFMARKUP_QPDF_PATH", "/opt/qpdf/bin/qpdf")
	cfg := Load()
	if cfg.Store != "redis" || !cfg.MinioUseSSL || cfg.QPDFPath != "/opt/qpdf/bin/qpdf" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.RasterScale != 4 {
		t.Fatalf("invalid int should fall back, got %d", cfg.RasterScale)
	}
}
