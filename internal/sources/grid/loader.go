package grid

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/minichannels/internal/domain"
)

// File is the root of the pixel YAML file:
//
//	pixels:
//	  - id: 12
//	    channel: "@cryptodaily"
//	    telegramLink: https://t.me/cryptodaily
//	    categories: [crypto, news]
//	    owner: "42"
type File struct {
	Pixels []Entry `yaml:"pixels"`
}

// Entry is one pixel of the file.
type Entry struct {
	ID           int `yaml:"id"`
	domain.Pixel `yaml:",inline"`
}

// Loader reads the pixel file.
type Loader struct {
	filePath string
	size     int
}

// NewLoader creates a loader for a grid of size pixels. Ids must fall in
// [0, size).
func NewLoader(filePath string, size int) *Loader {
	return &Loader{
		filePath: filePath,
		size:     size,
	}
}

// Load reads and parses the pixel file. A missing path yields an empty grid.
func (l *Loader) Load() (map[int]domain.Pixel, error) {
	if l.filePath == "" {
		return map[int]domain.Pixel{}, nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse grid yaml: %w", err)
	}

	pixels := make(map[int]domain.Pixel, len(file.Pixels))
	for _, e := range file.Pixels {
		if e.ID < 0 || (l.size > 0 && e.ID >= l.size) {
			return nil, fmt.Errorf("pixel %d outside grid of %d", e.ID, l.size)
		}
		if _, dup := pixels[e.ID]; dup {
			return nil, fmt.Errorf("pixel %d listed twice", e.ID)
		}
		pixels[e.ID] = e.Pixel
	}
	return pixels, nil
}
