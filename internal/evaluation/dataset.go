package evaluation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/flyerscan/prestations/internal/models"
)

// Dataset is a set of labelled flyers. Image paths are relative to the
// dataset file.
type Dataset struct {
	Prompt string `yaml:"prompt,omitempty"`
	Cases  []Case `yaml:"cases"`
}

// Case is one flyer: its photos and the prestations it should yield, in
// reading order.
type Case struct {
	Name     string          `yaml:"name"`
	Images   []string        `yaml:"images"`
	Expected []models.Fields `yaml:"expected"`
}

// LoadDataset reads a YAML dataset and resolves image paths against its
// directory.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(ds.Cases) == 0 {
		return nil, fmt.Errorf("dataset %s has no cases", path)
	}

	dir := filepath.Dir(path)
	for i := range ds.Cases {
		c := &ds.Cases[i]
		if c.Name == "" {
			c.Name = fmt.Sprintf("case-%d", i+1)
		}
		if len(c.Images) == 0 {
			return nil, fmt.Errorf("case %s has no images", c.Name)
		}
		for j, img := range c.Images {
			if !filepath.IsAbs(img) {
				c.Images[j] = filepath.Join(dir, img)
			}
		}
	}
	return &ds, nil
}
