// Package services implements the business logic layer between the
// transports (CLI, HTTP) and the exchange, directory and download packages.
//
// ReportService is the end-to-end closing report operation. For a given
// exchange and trading day it loads the company directory, resolves the
// report location, downloads and unpacks the file, decodes its rows and
// normalizes each one, overlaying the official company name from the
// directory. Only a failed download surfaces as an error of its own kind
// (*exchange.ReportNotFoundError); directory trouble degrades to names taken
// from the rows.
//
// DirectoryService exposes the company directories for inspection and
// forced refresh, and HealthService backs the health endpoints.
package services
