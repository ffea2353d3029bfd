package graph

import "github.com/nexxo-build/nexxocore/engine/fingerprint"

// ScanImports delegates to fingerprint.ScanImports. It lives on this
// package's public surface because resolver front-ends feed its output
// directly into AddNode/AddBatch calls.
func ScanImports(code string) []string {
	return fingerprint.ScanImports(code)
}

// NormalizePath delegates to fingerprint.NormalizePath.
func NormalizePath(path string) string {
	return fingerprint.NormalizePath(path)
}
