// Package models holds the GORM models behind the AWR tables. Domain types in
// internal/domain/issuance carry no ORM tags; the mappers here convert both ways.
package models
