package software

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// loadProducts reads the product catalog from a YAML file, or returns
// the built-in catalog when path is empty.
func loadProducts(path string) ([]Product, error) {
	if path == "" {
		return builtinProducts(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read product catalog: %w", err)
	}

	var products []Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse product catalog %s: %w", path, err)
	}

	valid := products[:0]
	for _, product := range products {
		if product.ID == "" {
			continue
		}
		valid = append(valid, product)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("product catalog %s is empty", path)
	}

	return valid, nil
}

func builtinProducts() []Product {
	return []Product{
		{
			ID:          "tumbleweed",
			Name:        "openSUSE Tumbleweed",
			Description: "Rolling release distribution",
			Patterns:    []string{"base", "enhanced_base", "sw_management"},
		},
		{
			ID:          "leap",
			Name:        "openSUSE Leap",
			Description: "Stable release distribution",
			Patterns:    []string{"base", "enhanced_base"},
		},
	}
}
