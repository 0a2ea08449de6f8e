package enums

import "fmt"

// CatalogItemType classifies a sellable catalog entry.
type CatalogItemType string

const (
	CatalogItemTypeService CatalogItemType = "service"
	CatalogItemTypeProduct CatalogItemType = "product"
	CatalogItemTypePackage CatalogItemType = "package"
)

var validCatalogItemTypes = []CatalogItemType{
	CatalogItemTypeService,
	CatalogItemTypeProduct,
	CatalogItemTypePackage,
}

// String implements fmt.Stringer.
func (c CatalogItemType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CatalogItemType.
func (c CatalogItemType) IsValid() bool {
	for _, candidate := range validCatalogItemTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCatalogItemType converts raw input into a CatalogItemType.
func ParseCatalogItemType(value string) (CatalogItemType, error) {
	for _, candidate := range validCatalogItemTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog item type %q", value)
}
