// Package export writes a scraped unit tree into a sqlite database.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"teepee-scraper/internal/components/chrono"
	"teepee-scraper/internal/objects"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Open opens (creating it if needed) the sqlite database at path and makes
// sure the schema exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

func nullString[T fmt.Stringer](v *T) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: (*v).String(), Valid: true}
}

func nullText(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullInt(v *uint32) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}

// Write stores roots and everything beneath them in a single transaction,
// stamping every unit with the time reported by clock. Units already in the
// database are replaced, so writing the same tree twice leaves one copy of it.
func Write(ctx context.Context, db *sql.DB, roots []objects.Unit, clock chrono.API) error {
	scrapedAt := clock.Now().UTC().Format(time.RFC3339)

	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertUnit, err := tx.PrepareContext(ctx, `insert or replace into units
		(id, name, supplementary_name, unit_type, number, parent_id, depth, position, scraped_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertUnit.Close()

	deletePersons, err := tx.PrepareContext(ctx, `delete from persons where unit_id = ?`)
	if err != nil {
		return err
	}
	defer deletePersons.Close()

	insertPerson, err := tx.PrepareContext(ctx, `insert or replace into persons
		(id, unit_id, name, gender, birth_date, nickname, volunteer, ztp, position)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertPerson.Close()

	var writeUnit func(unit *objects.Unit, parentId sql.NullInt64, depth, position int) error
	writeUnit = func(unit *objects.Unit, parentId sql.NullInt64, depth, position int) error {
		if !parentId.Valid && unit.Parent != nil {
			parentId = sql.NullInt64{Int64: int64(unit.Parent.Id), Valid: true}
		}
		_, err := insertUnit.ExecContext(
			ctx,
			unit.Id,
			unit.Name,
			nullText(unit.SupplementaryName),
			nullString(unit.Type),
			nullInt(unit.Number),
			parentId,
			depth,
			position,
			scrapedAt,
		)
		if err != nil {
			return fmt.Errorf("insert unit %d: %w", unit.Id, err)
		}

		_, err = deletePersons.ExecContext(ctx, unit.Id)
		if err != nil {
			return fmt.Errorf("clear persons of unit %d: %w", unit.Id, err)
		}
		for i, person := range unit.Persons {
			_, err = insertPerson.ExecContext(
				ctx,
				person.Id,
				unit.Id,
				person.Name,
				nullString(person.Gender),
				nullText(person.BirthDate),
				nullText(person.Nickname),
				nullBool(person.Volunteer),
				nullBool(person.Ztp),
				i,
			)
			if err != nil {
				return fmt.Errorf("insert person %d of unit %d: %w", person.Id, unit.Id, err)
			}
		}

		self := sql.NullInt64{Int64: int64(unit.Id), Valid: true}
		for i := range unit.Children {
			err = writeUnit(&unit.Children[i], self, depth+1, i)
			if err != nil {
				return err
			}
		}
		return nil
	}

	for i := range roots {
		err = writeUnit(&roots[i], sql.NullInt64{}, 0, i)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}
