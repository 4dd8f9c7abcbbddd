// Package models contains GORM persistence models for the bakery ledger and
// production tables. Domain types carry no ORM tags; each model converts to
// and from its domain counterpart with ToDomain and a FromDomain constructor.
package models
