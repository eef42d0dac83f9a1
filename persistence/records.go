package persistence

import (
	"fmt"
	"strconv"
	"strings"

	"tilecraft/server/models"
)

// fieldSep separates the parts of a multi-part field inside one record line
const fieldSep = "\xff"

// EncodeTile renders a tile as a line-oriented record:
// code, "h0\xFFh1\xFFh2\xFFh3", then one line per extra field.
func EncodeTile(t *models.Tile) []byte {
	heights := make([]string, len(t.Heights))
	for i, h := range t.Heights {
		heights[i] = strconv.Itoa(h)
	}
	lines := []string{
		strconv.Itoa(int(t.Kind)),
		strings.Join(heights, fieldSep),
	}
	lines = append(lines, t.FileExtra()...)
	return []byte(strings.Join(lines, "\n") + "\n")
}

// DecodeTile parses a record written by EncodeTile
func DecodeTile(data []byte) (models.Tile, error) {
	lines := splitLines(data)
	if len(lines) < 2 {
		return models.Tile{}, fmt.Errorf("tile record has %d lines", len(lines))
	}
	code, err := strconv.Atoi(lines[0])
	if err != nil {
		return models.Tile{}, fmt.Errorf("tile code: %w", err)
	}
	parts := strings.Split(lines[1], fieldSep)
	if len(parts) != 4 {
		return models.Tile{}, fmt.Errorf("tile heights: expected 4 parts, got %d", len(parts))
	}
	var heights [4]int
	for i, p := range parts {
		if heights[i], err = strconv.Atoi(p); err != nil {
			return models.Tile{}, fmt.Errorf("tile height %d: %w", i, err)
		}
	}

	t := models.TileFromCode(int32(code), heights)
	if err := t.ParseFileExtra(lines[2:]); err != nil {
		return models.Tile{}, err
	}
	return t, nil
}

// EncodeItem renders an item as a line-oriented record:
// code, quality, damage, weight, "x\xFFz\xFFrotation", extra fields, then
// the records of any items stored inside it.
func EncodeItem(item *models.Item) []byte {
	var lines []string
	appendItemLines(&lines, item)
	return []byte(strings.Join(lines, "\n") + "\n")
}

func appendItemLines(lines *[]string, item *models.Item) {
	*lines = append(*lines,
		strconv.Itoa(int(item.Kind)),
		formatFloat(item.Quality),
		formatFloat(item.Damage),
		formatFloat(item.Weight),
		strings.Join([]string{formatFloat(item.X), formatFloat(item.Z), formatFloat(item.Rotation)}, fieldSep),
	)
	*lines = append(*lines, item.FileExtra()...)
	if item.Storage != nil {
		for _, inner := range item.Storage.Items {
			appendItemLines(lines, inner)
		}
	}
}

// DecodeItem parses a record written by EncodeItem
func DecodeItem(data []byte) (*models.Item, error) {
	lines := splitLines(data)
	pos := 0
	item, err := parseItemLines(lines, &pos, 0)
	if err != nil {
		return nil, err
	}
	if pos != len(lines) {
		return nil, fmt.Errorf("item record has %d trailing lines", len(lines)-pos)
	}
	return item, nil
}

func parseItemLines(lines []string, pos *int, depth int) (*models.Item, error) {
	if depth > models.MaxItemDepth {
		return nil, models.ErrItemTooDeep
	}
	if len(lines)-*pos < 5 {
		return nil, fmt.Errorf("item record truncated at line %d", *pos)
	}
	head := lines[*pos : *pos+5]
	*pos += 5

	code, err := strconv.Atoi(head[0])
	if err != nil {
		return nil, fmt.Errorf("item code: %w", err)
	}
	kind := models.ItemKind(code)
	if !models.KnownItemKind(kind) {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownItemKind, code)
	}
	quality, err := parseFloat(head[1])
	if err != nil {
		return nil, fmt.Errorf("item quality: %w", err)
	}
	damage, err := parseFloat(head[2])
	if err != nil {
		return nil, fmt.Errorf("item damage: %w", err)
	}
	weight, err := parseFloat(head[3])
	if err != nil {
		return nil, fmt.Errorf("item weight: %w", err)
	}
	place := strings.Split(head[4], fieldSep)
	if len(place) != 3 {
		return nil, fmt.Errorf("item position: expected 3 parts, got %d", len(place))
	}
	var coords [3]float32
	for i, p := range place {
		if coords[i], err = parseFloat(p); err != nil {
			return nil, fmt.Errorf("item position %d: %w", i, err)
		}
	}

	item := models.NewItem(kind, models.MaterialNone, quality, damage)
	item.Weight = weight
	item.X, item.Z, item.Rotation = coords[0], coords[1], coords[2]

	extra := len(item.FileExtra())
	if len(lines)-*pos < extra {
		return nil, fmt.Errorf("%s: expected %d extra fields", item.Name(), extra)
	}
	nested, err := item.ParseFileExtra(lines[*pos : *pos+extra])
	if err != nil {
		return nil, err
	}
	*pos += extra

	for i := 0; i < nested; i++ {
		inner, err := parseItemLines(lines, pos, depth+1)
		if err != nil {
			return nil, fmt.Errorf("stored item %d: %w", i, err)
		}
		if err := item.StoreNested(inner); err != nil {
			return nil, err
		}
	}
	return item, nil
}

func splitLines(data []byte) []string {
	s := strings.TrimRight(string(data), "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}
