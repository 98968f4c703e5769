// Package config loads runtime configuration for the cart widget CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory holding the shared store
//	-f string   database file name inside the data directory
//	-p string   URL of the hosting page
//	-w int      simulated payment delay (milliseconds)
//	-s int      cross-tab sync interval (milliseconds)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "900ms" or
// integer nanoseconds. Absent keys keep their previous value:
//
//	{
//	  "data_dir": ".cartwidget",
//	  "database_file": "storage.db",
//	  "page_url": "file:///shop/index.html",
//	  "confirmation_page": "checkout.html",
//	  "categories_dir": "categories",
//	  "payment_delay": "900ms",
//	  "sync_interval": "1s",
//	  "currency": "$",
//	  "log_level": "info"
//	}
package config
