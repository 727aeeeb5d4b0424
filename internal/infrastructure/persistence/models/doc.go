// Package models holds the GORM row types backing the cashdesk tables.
// Domain entities stay free of ORM tags; each model here carries the column
// mappings and converts to and from its domain counterpart, so repositories
// never hand GORM structs to the application layer.
package models
