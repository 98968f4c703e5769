package models

import "time"

// Change is one entry of the shared storage change log: a key was written
// or removed by the tab identified by Origin.
type Change struct {
	Seq       int64
	Key       string
	Origin    string
	ChangedAt time.Time
}
