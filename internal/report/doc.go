// Package report writes the outputs of an analysis run: CSV tables
// (optionally zstd-compressed), a JSON summary, PNG plots rendered with
// gonum/plot and an HTML chart page rendered with go-echarts.
package report
