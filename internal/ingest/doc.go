// Package ingest loads an eye-tracker recording export (world timeline,
// gaze, eye states, surface positions) together with the target-detection
// table and segment boundaries into a pipeline.Input.
//
// Files are located by base name anywhere below the export directory and
// may be zstd-compressed (".csv.zst"). Empty cells are read as absent
// values, never as zero.
package ingest
