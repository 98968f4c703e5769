package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the cart widget host.
//
// Fields:
//   - DataDir / DatabaseFile: where the long-term (shared) store lives.
//   - PageURL: address of the page the widget is embedded in; the checkout
//     handoff resolves the confirmation page against it.
//   - ConfirmationPage / CategoriesDir: handoff target and the sub-path that
//     makes the target resolve one directory up.
//   - PaymentDelay: simulated payment processing time.
//   - SyncInterval: how often other tabs' storage changes are polled.
//   - Currency: symbol prefixed to formatted totals.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	DataDir          string
	DatabaseFile     string
	PageURL          string
	ConfirmationPage string
	CategoriesDir    string
	PaymentDelay     time.Duration
	SyncInterval     time.Duration
	Currency         string
	LogLevel         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = ".cartwidget"
	c.DatabaseFile = "storage.db"
	c.PageURL = "file:///shop/index.html"
	c.ConfirmationPage = "checkout.html"
	c.CategoriesDir = "categories"
	c.PaymentDelay = 900 * time.Millisecond
	c.SyncInterval = time.Second
	c.Currency = "$"
	c.LogLevel = "info"
}

// DatabasePath is the long-term store location inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
