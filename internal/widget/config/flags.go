package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-f", "-p", "-w", "-s", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.DatabaseFile, "f", cfg.DatabaseFile, "database file name")
	fs.StringVar(&cfg.PageURL, "p", cfg.PageURL, "URL of the hosting page")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	paymentDelay := fs.Int("w", int(cfg.PaymentDelay.Milliseconds()), "simulated payment delay (in milliseconds)")
	syncInterval := fs.Int("s", int(cfg.SyncInterval.Milliseconds()), "cross-tab sync interval (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PaymentDelay = time.Duration(*paymentDelay) * time.Millisecond
	cfg.SyncInterval = time.Duration(*syncInterval) * time.Millisecond
}
