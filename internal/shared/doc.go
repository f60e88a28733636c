// Package shared holds code used across packages that belongs to no single
// layer. Today that is the testutil subpackage: an in-memory slog handler for
// asserting on log output, and closing report fixtures (sample bhavcopy CSVs
// and a single-entry zip builder) shared by service and transport tests.
//
// testutil must only depend on the standard library so any package, including
// the low level ones, can use it from its tests.
package shared
