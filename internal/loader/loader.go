// Package loader reads blueprint catalogs from text or JSON input.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/napolitain/geode-solver/internal/models"
)

// ErrMalformed is wrapped by every ParseError
var ErrMalformed = errors.New("malformed blueprint")

// Precompiled patterns for the text format
var (
	headerRegex = regexp.MustCompile(`^\s*Blueprint\s+(\d+)\s*:`)
	clauseRegex = regexp.MustCompile(`Each\s+(\w+)\s+robot\s+costs\s+([^.]*)\.`)
	costRegex   = regexp.MustCompile(`^\s*(\d+)\s+(\w+)\s*$`)
)

// ParseError locates one rejected blueprint
type ParseError struct {
	Line  int    // 1-based line of the blueprint header; 0 for JSON input
	Input string // offending text or JSON path
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// Options controls how rejected blueprints are handled
type Options struct {
	// SkipInvalid collects rejected blueprints instead of failing on the first
	SkipInvalid bool
}

// Format is an input encoding
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatAuto, FormatText, FormatJSON:
		return f, nil
	case "":
		return FormatAuto, nil
	}
	return "", fmt.Errorf("unknown input format %q", name)
}

// Detect guesses the encoding from the first non-space byte
func Detect(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatText
}

// LoadBlueprints reads and parses a blueprint file. With FormatAuto a
// ".json" extension or leading bracket selects JSON.
func LoadBlueprints(path string, format Format, opts Options) ([]models.Blueprint, []*ParseError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if format == FormatAuto || format == "" {
		format = Detect(data)
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = FormatJSON
		}
	}

	var (
		blueprints []models.Blueprint
		skipped    []*ParseError
	)
	switch format {
	case FormatJSON:
		blueprints, skipped, err = ParseBlueprintsJSON(data, opts)
	default:
		blueprints, skipped, err = ParseBlueprints(bytes.NewReader(data), opts)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return blueprints, skipped, nil
}

// record is one blueprint's text, possibly spread over several lines
type record struct {
	line int
	text strings.Builder
}

// ParseBlueprints reads the text format. A blueprint starts with a
// "Blueprint <id>:" header and may continue on following lines.
// Blank lines are ignored.
func ParseBlueprints(r io.Reader, opts Options) ([]models.Blueprint, []*ParseError, error) {
	var records []*record
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if headerRegex.MatchString(line) || len(records) == 0 {
			records = append(records, &record{line: lineNum})
		}
		cur := records[len(records)-1]
		if cur.text.Len() > 0 {
			cur.text.WriteByte(' ')
		}
		cur.text.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	var (
		blueprints []models.Blueprint
		skipped    []*ParseError
	)
	seen := make(map[int]int)
	for _, rec := range records {
		text := rec.text.String()
		bp, perr := parseBlueprint(text)
		if perr == nil {
			if first, dup := seen[bp.ID]; dup {
				perr = &ParseError{Field: "id", Err: malformed("id %d already used on line %d", bp.ID, first)}
			}
		}
		if perr != nil {
			perr.Line = rec.line
			perr.Input = text
			if !opts.SkipInvalid {
				return nil, nil, perr
			}
			skipped = append(skipped, perr)
			continue
		}
		seen[bp.ID] = rec.line
		blueprints = append(blueprints, bp)
	}
	return blueprints, skipped, nil
}

func parseBlueprint(text string) (models.Blueprint, *ParseError) {
	header := headerRegex.FindStringSubmatchIndex(text)
	if header == nil {
		return models.Blueprint{}, &ParseError{Field: "header", Err: malformed("expected \"Blueprint <id>:\"")}
	}
	id, err := strconv.Atoi(text[header[2]:header[3]])
	if err != nil {
		return models.Blueprint{}, &ParseError{Field: "id", Err: malformed("%v", err)}
	}

	bp := models.Blueprint{ID: id}
	var defined [models.NumResources]bool

	body := text[header[1]:]
	rest := clauseRegex.ReplaceAllString(body, "")
	if strings.TrimSpace(rest) != "" {
		return bp, &ParseError{Field: "clause", Err: malformed("unexpected text %q", strings.TrimSpace(rest))}
	}

	for _, m := range clauseRegex.FindAllStringSubmatch(body, -1) {
		kind, err := models.ParseResource(m[1])
		if err != nil {
			return bp, &ParseError{Field: "robot", Err: malformed("%v", err)}
		}
		if defined[kind] {
			return bp, &ParseError{Field: kind.String(), Err: malformed("%s robot defined twice", kind)}
		}
		costs, perr := parseCosts(kind, m[2])
		if perr != nil {
			return bp, perr
		}
		bp.Recipes[kind] = models.Recipe{Produces: kind, Costs: costs}
		defined[kind] = true
	}

	return bp, finish(&bp, defined)
}

func parseCosts(kind models.Resource, list string) ([]models.Cost, *ParseError) {
	var costs []models.Cost
	for _, part := range strings.Split(list, " and ") {
		m := costRegex.FindStringSubmatch(part)
		if m == nil {
			return nil, &ParseError{Field: kind.String(), Err: malformed("bad cost %q", strings.TrimSpace(part))}
		}
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &ParseError{Field: kind.String(), Err: malformed("%v", err)}
		}
		costKind, err := models.ParseResource(m[2])
		if err != nil {
			return nil, &ParseError{Field: kind.String(), Err: malformed("%v", err)}
		}
		costs = append(costs, models.Cost{Kind: costKind, Quantity: qty})
	}
	return costs, nil
}

// finish checks every kind has a recipe, orders costs by kind and runs
// the catalog validation
func finish(bp *models.Blueprint, defined [models.NumResources]bool) *ParseError {
	for _, kind := range models.AllResources() {
		if !defined[kind] {
			return &ParseError{Field: kind.String(), Err: malformed("missing %s robot recipe", kind)}
		}
		costs := bp.Recipes[kind].Costs
		sort.SliceStable(costs, func(i, j int) bool { return costs[i].Kind < costs[j].Kind })
	}
	if err := bp.Validate(); err != nil {
		return &ParseError{Field: "recipes", Err: fmt.Errorf("%w: %w", ErrMalformed, err)}
	}
	return nil
}
