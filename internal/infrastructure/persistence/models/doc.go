// Package models contains the GORM persistence models for the migration
// target schema. Every table carries the originating remote identifier in a
// legacy_*_id column; those columns are the business keys the idempotent
// writer checks before inserting, so a re-run can never duplicate a row.
//
// The models double as the write candidates flowing through the pipeline:
// mappers build them from source records, the reconciler fills their foreign
// keys, and the writer inserts them. The pipeline never reads full rows back,
// so there is no separate domain entity layer to round-trip through.
package models
