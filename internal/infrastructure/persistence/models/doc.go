// Package models maps the trade workflow tables for GORM. Domain types carry
// no ORM tags; each model converts with ToDomain and a FromDomain function.
// Checks, routes and artifacts are stored as JSON columns.
package models
