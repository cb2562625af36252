package app

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Number is a single decimal scalar from an object file. The format keeps
// boolean-like flags (hFlip, invisHolding, ...) float-typed, so we do too.
type Number float64

// Position is a 2D offset in object-space pixels.
type Position struct {
	X Number `json:"x"`
	Y Number `json:"y"`
}

// ColorRGB is a sprite tint with each channel in 0..1.
type ColorRGB struct {
	R Number `json:"r"`
	G Number `json:"g"`
	B Number `json:"b"`
}

// AgeRange bounds the character ages a sprite is drawn for; -1 means open.
type AgeRange struct {
	Min Number `json:"min"`
	Max Number `json:"max"`
}

// PersonCharacteristic tells feminine from masculine person objects.
type PersonCharacteristic string

const (
	Feminine  PersonCharacteristic = "feminine"
	Masculine PersonCharacteristic = "masculine"
)

// ClothingObject is a tagged union over the wearable slots. Exactly one
// field is set; each carries the clothingOffset parsed from the file.
type ClothingObject struct {
	Shoe     *Position `json:"shoe,omitempty"`
	Tunic    *Position `json:"tunic,omitempty"`
	Hat      *Position `json:"hat,omitempty"`
	Bottom   *Position `json:"bottom,omitempty"`
	Backpack *Position `json:"backpack,omitempty"`
}

// NonPersonObject is either a wearable (Clothing set) or any other object
// (Clothing nil). It serializes as {"clothing":...} or the bare string
// "other", matching the export format consumed downstream.
type NonPersonObject struct {
	Clothing *ClothingObject
}

func (n NonPersonObject) MarshalJSON() ([]byte, error) {
	if n.Clothing != nil {
		return json.Marshal(struct {
			Clothing *ClothingObject `json:"clothing"`
		}{n.Clothing})
	}
	return json.Marshal("other")
}

func (n *NonPersonObject) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		if s != "other" {
			return fmt.Errorf("unknown non-person variant %q", s)
		}
		n.Clothing = nil
		return nil
	}
	var v struct {
		Clothing *ClothingObject `json:"clothing"`
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return err
	}
	n.Clothing = v.Clothing
	return nil
}

// ObjectKind is a tagged union: exactly one of Person or NonPerson is set.
// The person flag always wins over any clothing code in the same record.
type ObjectKind struct {
	Person    *PersonCharacteristic `json:"person,omitempty"`
	NonPerson *NonPersonObject      `json:"nonPerson,omitempty"`
}

// Sprite is one drawable layer of an object. InvisCont and IgnoredCont are
// trailing fields that only some format generations (and some records) carry.
type Sprite struct {
	ID           uint64   `json:"id"`
	Position     Position `json:"position"`
	Rot          Number   `json:"rot"`
	HFlip        Number   `json:"hFlip"`
	Color        ColorRGB `json:"color"`
	AgeRange     AgeRange `json:"ageRange"`
	Parent       int64    `json:"parent"`
	InvisHolding Number   `json:"invisHolding"`
	InvisWorn    Number   `json:"invisWorn"`
	BehindSlots  Number   `json:"behindSlots"`
	InvisCont    *Number  `json:"invisCont"`
	IgnoredCont  *Number  `json:"ignoredCont"`
}

// Object is one parsed game entity definition.
//
// NumSprites is whatever the file declared; it is not validated against
// len(Sprites) because shipped data files disagree with their own counts.
// Index lists reference sprite positions by index (-1 = none) and are not
// bounds-checked either; validation is a downstream concern.
// SpritesDrawnBehind and SpritesAdditiveBlend are nil for files from the
// older format generation.
type Object struct {
	ID                   uint64     `json:"id"`
	Description          string     `json:"description"`
	Kind                 ObjectKind `json:"kind"`
	NumSprites           uint64     `json:"numSprites"`
	Sprites              []Sprite   `json:"sprites"`
	SpritesDrawnBehind   []int64    `json:"spritesDrawnBehind"`
	SpritesAdditiveBlend []int64    `json:"spritesAdditiveBlend"`
	HeadIndex            []int64    `json:"headIndex"`
	BodyIndex            []int64    `json:"bodyIndex"`
	BackFootIndex        []int64    `json:"backFootIndex"`
	FrontFootIndex       []int64    `json:"frontFootIndex"`
}
