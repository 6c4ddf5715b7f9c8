// Package catalog loads the window fingerprints, camera models and shutter
// speed map the automation engine runs against.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/mj1618/dslr-remote/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Default returns the built-in catalog.
func Default() (*model.Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the built-in catalog when path is empty.
func Load(path string) (*model.Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document, validates it and resolves each camera's
// shutter speed names against the shutter speed map.
func Parse(data []byte) (*model.Catalog, error) {
	var c model.Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}

	speeds := make(map[string]model.ShutterSpeed, len(c.ShutterSpeeds))
	for _, s := range c.ShutterSpeeds {
		speeds[s.Name] = s
	}
	for i := range c.Cameras {
		cam := &c.Cameras[i]
		cam.ShutterSpeeds = make([]model.ShutterSpeed, 0, len(cam.ShutterSpeedNames))
		for _, name := range cam.ShutterSpeedNames {
			s, ok := speeds[name]
			if !ok {
				return nil, fmt.Errorf("camera %s: shutter speed %q not in shutter speed map", cam.ID, name)
			}
			cam.ShutterSpeeds = append(cam.ShutterSpeeds, s)
		}
	}
	return &c, nil
}

func validate(c *model.Catalog) error {
	seen := make(map[model.WindowType]bool)
	for _, w := range c.Windows {
		if w.Type == model.WindowNone {
			return fmt.Errorf("catalog: %q cannot have a template", w.Type)
		}
		if _, err := model.ParseWindowType(string(w.Type)); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		if seen[w.Type] {
			return fmt.Errorf("catalog: duplicate template for %q", w.Type)
		}
		seen[w.Type] = true
		if len(w.Controls) == 0 {
			return fmt.Errorf("catalog: template %q has no controls", w.Type)
		}
	}
	ids := make(map[string]bool)
	for _, cam := range c.Cameras {
		if cam.ID == "" {
			return fmt.Errorf("catalog: camera without id")
		}
		if ids[cam.ID] {
			return fmt.Errorf("catalog: duplicate camera %q", cam.ID)
		}
		ids[cam.ID] = true
		if len(cam.AllGains) == 0 || len(cam.ShutterSpeedNames) == 0 {
			return fmt.Errorf("catalog: camera %q needs all_gains and shutter_speeds", cam.ID)
		}
	}
	return nil
}
