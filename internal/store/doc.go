// Package store persists users, runtime settings and counters. It runs on
// sqlite (default, single connection) or postgres behind the same queries.
package store
