package grid

import (
	"os"
	"path/filepath"
	"testing"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	path := writeGrid(t, `---
pixels:
  - id: 12
    channel: "@cryptodaily"
    telegramLink: https://t.me/cryptodaily
    categories: [crypto, news]
    owner: "42"
    purchaseDate: 2025-01-02T10:00:00Z
    price: 5
  - id: 3
    telegramLink: https://t.me/technews
`)

	pixels, err := NewLoader(path, 100).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(pixels) != 2 {
		t.Fatalf("Load() returned %d pixels, want 2", len(pixels))
	}

	px := pixels[12]
	if px.Channel != "@cryptodaily" || px.Owner != "42" || px.Price != 5 {
		t.Errorf("pixel 12 = %+v", px)
	}
	if len(px.Categories) != 2 || px.Categories[1] != "news" {
		t.Errorf("pixel 12 categories = %v", px.Categories)
	}
	if px.PurchaseDate.Year() != 2025 {
		t.Errorf("pixel 12 purchaseDate = %v", px.PurchaseDate)
	}
}

func TestLoaderRejectsBadIDs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"out of range", "pixels:\n  - id: 100\n"},
		{"negative", "pixels:\n  - id: -1\n"},
		{"duplicate", "pixels:\n  - id: 1\n  - id: 1\n"},
		{"not yaml", "pixels: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLoader(writeGrid(t, tt.content), 100).Load(); err == nil {
				t.Error("Load() should return error")
			}
		})
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	if _, err := NewLoader("/nonexistent/path/grid.yaml", 100).Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderEmptyPath(t *testing.T) {
	pixels, err := NewLoader("", 100).Load()
	if err != nil || len(pixels) != 0 {
		t.Errorf("Load() = %v, %v; want empty grid", pixels, err)
	}
}
