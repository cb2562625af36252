package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Grammar errors. Everything the object grammar can reject wraps one of
// these, with the byte offset of the failure attached.
var (
	ErrMalformedNumber    = errors.New("malformed number")
	ErrMalformedIndexList = errors.New("malformed index list")
	ErrUnexpectedKey      = errors.New("unexpected key")
)

// cursor walks a full object file held in memory. All sub-parsers either
// consume what they matched or report an error; optional constructs save and
// restore pos themselves so a failed attempt never eats bytes.
type cursor struct {
	src string
	pos int
}

func (c *cursor) rest() string {
	return c.src[c.pos:]
}

// take consumes lit if it is next, reporting whether it did.
func (c *cursor) take(lit string) bool {
	if strings.HasPrefix(c.rest(), lit) {
		c.pos += len(lit)
		return true
	}
	return false
}

// lineEnding consumes a single "\n" or "\r\n".
func (c *cursor) lineEnding() bool {
	return c.take("\r\n") || c.take("\n")
}

// separator consumes one newline or one comma. The format uses the two
// interchangeably between fields, so every junction accepts either.
func (c *cursor) separator() bool {
	return c.lineEnding() || c.take(",")
}

func (c *cursor) requireSeparator() error {
	if !c.separator() {
		return fmt.Errorf("expected separator at offset %d", c.pos)
	}
	return nil
}

// digits consumes a run of ASCII digits and returns how many it ate.
func (c *cursor) digits() int {
	n := 0
	for c.pos < len(c.src) && c.src[c.pos] >= '0' && c.src[c.pos] <= '9' {
		c.pos++
		n++
	}
	return n
}

// number consumes a decimal floating-point literal: optional sign, digits,
// optional fraction, optional exponent.
func (c *cursor) number() (Number, error) {
	start := c.pos
	if !c.take("-") {
		c.take("+")
	}
	n := c.digits()
	if c.take(".") {
		n += c.digits()
	}
	if n == 0 {
		c.pos = start
		return 0, fmt.Errorf("%w at offset %d", ErrMalformedNumber, start)
	}
	mark := c.pos
	if c.take("e") || c.take("E") {
		if !c.take("-") {
			c.take("+")
		}
		if c.digits() == 0 {
			c.pos = mark
		}
	}
	v, err := strconv.ParseFloat(c.src[start:c.pos], 64)
	if err != nil {
		c.pos = start
		return 0, fmt.Errorf("%w at offset %d", ErrMalformedNumber, start)
	}
	return Number(v), nil
}

// parseUint consumes an unsigned decimal integer.
func (c *cursor) parseUint() (uint64, error) {
	start := c.pos
	if c.digits() == 0 {
		return 0, fmt.Errorf("%w at offset %d", ErrMalformedNumber, start)
	}
	v, err := strconv.ParseUint(c.src[start:c.pos], 10, 64)
	if err != nil {
		c.pos = start
		return 0, fmt.Errorf("%w at offset %d", ErrMalformedNumber, start)
	}
	return v, nil
}

// parseInt consumes a signed decimal integer.
func (c *cursor) parseInt() (int64, error) {
	start := c.pos
	if !c.take("-") {
		c.take("+")
	}
	if c.digits() == 0 {
		c.pos = start
		return 0, fmt.Errorf("%w at offset %d", ErrMalformedNumber, start)
	}
	v, err := strconv.ParseInt(c.src[start:c.pos], 10, 64)
	if err != nil {
		c.pos = start
		return 0, fmt.Errorf("%w at offset %d", ErrMalformedNumber, start)
	}
	return v, nil
}

// indexList consumes one-or-more comma-separated signed integers with no
// trailing delimiter. A comma not followed by an integer is left unconsumed
// so the caller's separator still matches.
func (c *cursor) indexList() ([]int64, error) {
	first, err := c.parseInt()
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d", ErrMalformedIndexList, c.pos)
	}
	list := []int64{first}
	for {
		mark := c.pos
		if !c.take(",") {
			break
		}
		v, err := c.parseInt()
		if err != nil {
			c.pos = mark
			break
		}
		list = append(list, v)
	}
	return list, nil
}

// alphanumeric consumes a run of ASCII letters and digits.
func (c *cursor) alphanumeric() (string, error) {
	start := c.pos
	for c.pos < len(c.src) {
		ch := c.src[c.pos]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			c.pos++
			continue
		}
		break
	}
	if c.pos == start {
		return "", fmt.Errorf("expected alphanumeric value at offset %d", start)
	}
	return c.src[start:c.pos], nil
}

// restOfLine greedily consumes everything up to the next line ending,
// including the ending itself, and returns the line content.
func (c *cursor) restOfLine() (string, error) {
	idx := strings.IndexByte(c.rest(), '\n')
	if idx < 0 {
		return "", fmt.Errorf("expected line ending after offset %d", c.pos)
	}
	line := c.rest()[:idx]
	c.pos += idx + 1
	return strings.TrimSuffix(line, "\r"), nil
}

// skipTo discards everything up to (not including) the next occurrence of
// anchor. The format carries a version-dependent number of fields between
// the anchors we care about; scanning for the next known key is deliberately
// lenient instead of enumerating fields that vary per generation.
func (c *cursor) skipTo(anchor string) error {
	idx := strings.Index(c.rest(), anchor)
	if idx < 0 {
		return fmt.Errorf("%w: %q not found after offset %d", ErrUnexpectedKey, anchor, c.pos)
	}
	c.pos += idx
	return nil
}

// assignment consumes "key=" verbatim (no case folding, no whitespace
// tolerance) and delegates to value for the right-hand side.
func assignment[T any](c *cursor, key string, value func(*cursor) (T, error)) (T, error) {
	if !c.take(key + "=") {
		var zero T
		return zero, fmt.Errorf("%w: want %q at offset %d", ErrUnexpectedKey, key, c.pos)
	}
	return value(c)
}

func (c *cursor) position() (Position, error) {
	x, err := c.number()
	if err != nil {
		return Position{}, err
	}
	if !c.take(",") {
		return Position{}, fmt.Errorf("expected ',' at offset %d", c.pos)
	}
	y, err := c.number()
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

func (c *cursor) color() (ColorRGB, error) {
	r, err := c.number()
	if err != nil {
		return ColorRGB{}, err
	}
	if !c.take(",") {
		return ColorRGB{}, fmt.Errorf("expected ',' at offset %d", c.pos)
	}
	g, err := c.number()
	if err != nil {
		return ColorRGB{}, err
	}
	if !c.take(",") {
		return ColorRGB{}, fmt.Errorf("expected ',' at offset %d", c.pos)
	}
	b, err := c.number()
	if err != nil {
		return ColorRGB{}, err
	}
	return ColorRGB{R: r, G: g, B: b}, nil
}

func (c *cursor) ageRange() (AgeRange, error) {
	min, err := c.number()
	if err != nil {
		return AgeRange{}, err
	}
	if !c.take(",") {
		return AgeRange{}, fmt.Errorf("expected ',' at offset %d", c.pos)
	}
	max, err := c.number()
	if err != nil {
		return AgeRange{}, err
	}
	return AgeRange{Min: min, Max: max}, nil
}

// tryTailNumber attempts an optional trailing "key=<number>" preceded by a
// separator. On any failure the cursor is restored to before the attempt,
// separator included, so the next field starts exactly where this one began.
func (c *cursor) tryTailNumber(key string) *Number {
	mark := c.pos
	if !c.separator() {
		return nil
	}
	v, err := assignment(c, key, (*cursor).number)
	if err != nil {
		c.pos = mark
		return nil
	}
	return &v
}

// parseSprite consumes one sprite record: a strictly ordered field sequence
// with two independently optional trailing fields. Any required-field
// failure aborts the sprite; there is no partial recovery.
func parseSprite(c *cursor) (Sprite, error) {
	var s Sprite
	var err error

	if s.ID, err = assignment(c, "spriteID", (*cursor).parseUint); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.Position, err = assignment(c, "pos", (*cursor).position); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.Rot, err = assignment(c, "rot", (*cursor).number); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.HFlip, err = assignment(c, "hFlip", (*cursor).number); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.Color, err = assignment(c, "color", (*cursor).color); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.AgeRange, err = assignment(c, "ageRange", (*cursor).ageRange); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.Parent, err = assignment(c, "parent", (*cursor).parseInt); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.InvisHolding, err = assignment(c, "invisHolding", (*cursor).number); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.InvisWorn, err = assignment(c, "invisWorn", (*cursor).number); err != nil {
		return s, err
	}
	if err = c.requireSeparator(); err != nil {
		return s, err
	}
	if s.BehindSlots, err = assignment(c, "behindSlots", (*cursor).number); err != nil {
		return s, err
	}

	s.InvisCont = c.tryTailNumber("invisCont")
	s.IgnoredCont = c.tryTailNumber("ignoredCont")

	return s, nil
}

// spriteTerminator is the field group that ends the repeating sprite block:
// two optional index lists the newer format generation added, then the
// required headIndex.
type spriteTerminator struct {
	drawnBehind   []int64
	additiveBlend []int64
	headIndex     []int64
}

// tryLeadingList attempts an optional "key=<indexList>" followed by a
// separator, restoring the cursor and returning nil if either part is
// missing.
func (c *cursor) tryLeadingList(key string) []int64 {
	mark := c.pos
	list, err := assignment(c, key, (*cursor).indexList)
	if err != nil || !c.separator() {
		c.pos = mark
		return nil
	}
	return list
}

// tryTerminator attempts the sprite-block terminator. The whole attempt is
// non-committing: if headIndex is not reached the cursor is restored and the
// caller goes on to parse another sprite.
func tryTerminator(c *cursor) (spriteTerminator, bool) {
	mark := c.pos
	var t spriteTerminator

	t.drawnBehind = c.tryLeadingList("spritesDrawnBehind")
	t.additiveBlend = c.tryLeadingList("spritesAdditiveBlend")

	head, err := assignment(c, "headIndex", (*cursor).indexList)
	if err != nil {
		c.pos = mark
		return spriteTerminator{}, false
	}
	t.headIndex = head
	return t, true
}

// clothingFor maps a clothing code to its variant, carrying the parsed
// clothingOffset. Unrecognized codes fall back to Tunic; notably "k"
// (Backpack) appears in no shipped data, so Backpack is never produced here.
func clothingFor(code string, offset Position) ClothingObject {
	var cl ClothingObject
	switch code {
	case "s":
		cl.Shoe = &offset
	case "h":
		cl.Hat = &offset
	case "b":
		cl.Bottom = &offset
	default: // "t" and anything unknown
		cl.Tunic = &offset
	}
	return cl
}

// ParseObject parses one object definition file. Trailing content after
// frontFootIndex (numUses, pixHeight, sound tables, ...) is discarded
// unconditionally. Any grammar failure aborts the whole object; callers
// treat that as "file is not an object", not as a hard error.
func ParseObject(src string) (Object, error) {
	c := &cursor{src: src}
	var obj Object
	var err error

	if obj.ID, err = assignment(c, "id", (*cursor).parseUint); err != nil {
		return Object{}, err
	}
	if !c.lineEnding() {
		return Object{}, fmt.Errorf("expected line ending at offset %d", c.pos)
	}
	if obj.Description, err = c.restOfLine(); err != nil {
		return Object{}, err
	}

	if err = c.skipTo("person"); err != nil {
		return Object{}, err
	}
	person, err := assignment(c, "person", (*cursor).parseUint)
	if err != nil {
		return Object{}, err
	}
	if err = c.skipTo("male"); err != nil {
		return Object{}, err
	}
	male, err := assignment(c, "male", (*cursor).parseUint)
	if err != nil {
		return Object{}, err
	}
	if err = c.skipTo("clothing"); err != nil {
		return Object{}, err
	}
	clothing, err := assignment(c, "clothing", (*cursor).alphanumeric)
	if err != nil {
		return Object{}, err
	}
	if err = c.requireSeparator(); err != nil {
		return Object{}, err
	}
	clothingOffset, err := assignment(c, "clothingOffset", (*cursor).position)
	if err != nil {
		return Object{}, err
	}

	switch {
	case person > 0:
		ch := Feminine
		if male > 0 {
			ch = Masculine
		}
		obj.Kind.Person = &ch
	case clothing != "n":
		cl := clothingFor(clothing, clothingOffset)
		obj.Kind.NonPerson = &NonPersonObject{Clothing: &cl}
	default:
		obj.Kind.NonPerson = &NonPersonObject{}
	}

	if err = c.skipTo("numSprites"); err != nil {
		return Object{}, err
	}
	if obj.NumSprites, err = assignment(c, "numSprites", (*cursor).parseUint); err != nil {
		return Object{}, err
	}
	if err = c.requireSeparator(); err != nil {
		return Object{}, err
	}

	// Repeat sprite-then-separator until the terminator matches. NumSprites
	// is declared by the file but never trusted to bound this loop.
	obj.Sprites = []Sprite{}
	for {
		term, ok := tryTerminator(c)
		if ok {
			obj.SpritesDrawnBehind = term.drawnBehind
			obj.SpritesAdditiveBlend = term.additiveBlend
			obj.HeadIndex = term.headIndex
			break
		}
		sprite, err := parseSprite(c)
		if err != nil {
			return Object{}, err
		}
		if err = c.requireSeparator(); err != nil {
			return Object{}, err
		}
		obj.Sprites = append(obj.Sprites, sprite)
	}

	if err = c.requireSeparator(); err != nil {
		return Object{}, err
	}
	if obj.BodyIndex, err = assignment(c, "bodyIndex", (*cursor).indexList); err != nil {
		return Object{}, err
	}
	if err = c.requireSeparator(); err != nil {
		return Object{}, err
	}
	if obj.BackFootIndex, err = assignment(c, "backFootIndex", (*cursor).indexList); err != nil {
		return Object{}, err
	}
	if err = c.requireSeparator(); err != nil {
		return Object{}, err
	}
	if obj.FrontFootIndex, err = assignment(c, "frontFootIndex", (*cursor).indexList); err != nil {
		return Object{}, err
	}

	return obj, nil
}
