// Package postgres implements the relational repositories on PostgreSQL.
//
// Connections go through database/sql with the pgx driver. Statements are
// built with squirrel using $n placeholders. The schema lives in embedded
// SQL migrations applied with golang-migrate; see Migrate.
//
// Only messages and media scores are stored here. Vectors stay in the
// embedded badger store.
package postgres
