package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cartwidget/internal/flagx"
	"github.com/dmitrijs2005/cartwidget/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "empty" so a partial file only overrides
// what it names.
type JsonConfig struct {
	DataDir          *string         `json:"data_dir"`
	DatabaseFile     *string         `json:"database_file"`
	PageURL          *string         `json:"page_url"`
	ConfirmationPage *string         `json:"confirmation_page"`
	CategoriesDir    *string         `json:"categories_dir"`
	PaymentDelay     *timex.Duration `json:"payment_delay"`
	SyncInterval     *timex.Duration `json:"sync_interval"`
	Currency         *string         `json:"currency"`
	LogLevel         *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c / -config. Without the flag it does nothing. Read or unmarshal errors
// panic (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.DatabaseFile, jc.DatabaseFile)
	setString(&cfg.PageURL, jc.PageURL)
	setString(&cfg.ConfirmationPage, jc.ConfirmationPage)
	setString(&cfg.CategoriesDir, jc.CategoriesDir)
	setString(&cfg.Currency, jc.Currency)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.PaymentDelay != nil {
		cfg.PaymentDelay = jc.PaymentDelay.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
