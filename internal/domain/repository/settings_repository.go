package repository

import "context"

// Claves de configuración por marca.
const (
	SettingBarcodeFormat  = "BARCODE_FORMAT"
	SettingSizeMapping    = "SIZE_MAPPING"
	SettingCategoryRule   = "CATEGORY_MAPPING_RULE"
	SettingSizeSortOrder  = "SIZE_SORT_ORDER"
	SettingImportStrategy = "IMPORT_STRATEGY"
)

// SettingsRepository lectura clave-valor de configuración por marca.
type SettingsRepository interface {
	GetAll(ctx context.Context, brandID string) (map[string]string, error)
	Get(ctx context.Context, brandID, key string) (string, bool, error)
}
