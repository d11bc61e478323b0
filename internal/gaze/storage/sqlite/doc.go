// Package sqlite persists analysis runs and their trial-level results.
//
// The schema lives in internal/db/migrations; this package only reads and
// writes rows so the analysis layers (L1-L6) stay free of SQL. Optional
// metrics round-trip as NULL, never as zero.
package sqlite
