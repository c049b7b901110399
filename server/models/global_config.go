package models

import (
	"errors"

	"gorm.io/gorm"
)

const DEFAULT_COUNTRY_CODE_PARAM = "default_country_code"

// GlobalConfig is a flat parameter->value settings table, read at
// startup & never mutated by request handlers.
type GlobalConfig struct {
	BaseModel
	Parameter   string `json:"parameter" gorm:"not null;unique;size:40"`
	Value       string `json:"value" gorm:"not null"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty" gorm:"column:group;size:20"`
}

func (GlobalConfig) TableName() string {
	return "global_config"
}

func FindGlobalConfig(parameter string) (*GlobalConfig, error) {
	config := GlobalConfig{}
	err := db.First(&config, "parameter = ?", parameter).Error
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// GlobalConfigValue returns the stored value for parameter, or
// fallback when the parameter isn't present.
func GlobalConfigValue(parameter string, fallback string) string {
	config, err := FindGlobalConfig(parameter)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback
	}

	if err != nil {
		logg.Errorf("failed to read global config %q: %v", parameter, err)
		return fallback
	}

	return config.Value
}
