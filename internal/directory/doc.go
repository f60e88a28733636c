// Package directory maintains the per-exchange company directory used to
// give closing-report rows their official company names.
//
// A Snapshot maps ticker symbols to companies and carries the time it was
// fetched. Snapshots are persisted through a Cache (a JSON file or a Redis
// key) and refreshed from a Source when the StalenessPolicy of the exchange
// says the calendar period they were fetched in has passed.
//
// Loader ties the pieces together. It never fails: when a refresh is not
// possible it falls back to the last good snapshot, or to an empty one, and
// reports names from the rows themselves.
package directory
