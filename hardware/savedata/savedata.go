// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package savedata implements the save-record codec: a hash identifying
// which game a save belongs to, the EEPROM contents, and the set of FX
// flash sectors firmware has written, round-tripped to a compact JSON
// encoding via jx.
package savedata

import (
	"fmt"
	"hash/fnv"

	"github.com/go-faster/jx"
)

// Record is everything persisted between sessions for a single game.
type Record struct {
	GameHash  uint64
	EEPROM    []byte
	FXSectors map[int][]byte
}

// GameHash computes the FNV-1a-64 digest identifying a cartridge image:
// the hash is taken over the flash image bytes followed by the FX flash
// bytes, so two carts with identical game code but different FX data
// (different save files baked into the same binary) still hash distinctly.
func GameHash(flash, fxData []byte) uint64 {
	h := fnv.New64a()
	h.Write(flash)
	h.Write(fxData)
	return h.Sum64()
}

// Encode serialises rec as a compact JSON document.
func Encode(rec Record) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("game_hash")
		e.UInt64(rec.GameHash)

		e.FieldStart("eeprom")
		e.Base64(rec.EEPROM)

		e.FieldStart("fx_sectors")
		e.ObjStart()
		for sector, data := range rec.FXSectors {
			e.FieldStart(fmt.Sprintf("%d", sector))
			e.Base64(data)
		}
		e.ObjEnd()
	})

	return e.Bytes()
}

// Decode parses a document produced by Encode.
func Decode(data []byte) (Record, error) {
	var rec Record
	rec.FXSectors = make(map[int][]byte)

	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "game_hash":
			v, err := d.UInt64()
			if err != nil {
				return err
			}
			rec.GameHash = v
		case "eeprom":
			v, err := d.Base64()
			if err != nil {
				return err
			}
			rec.EEPROM = v
		case "fx_sectors":
			return d.Obj(func(d *jx.Decoder, skey string) error {
				var sector int
				if _, err := fmt.Sscanf(skey, "%d", &sector); err != nil {
					return err
				}
				v, err := d.Base64()
				if err != nil {
					return err
				}
				rec.FXSectors[sector] = v
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("savedata: decode: %w", err)
	}
	return rec, nil
}

// Matches reports whether rec was saved against the same cartridge image
// currently loaded (flash, fxData).
func (rec Record) Matches(flash, fxData []byte) bool {
	return rec.GameHash == GameHash(flash, fxData)
}
