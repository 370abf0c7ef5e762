package crucible

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrorKind enumerates the parser's diagnostic taxonomy.
type ErrorKind int

const (
	ExtraInput ErrorKind = iota
	UnexpectedEOF
	MalformedCrateName
	MalformedUUID
	UnitTestMiscount
	BenchmarkMiscount
	DocTestMiscount
	MalformedDocTestLine
	SectionOverrun
)

func (k ErrorKind) String() string {
	switch k {
	case ExtraInput:
		return "ExtraInput"
	case UnexpectedEOF:
		return "UnexpectedEoF"
	case MalformedCrateName:
		return "MalformedCrateName"
	case MalformedUUID:
		return "MalformedUuid"
	case UnitTestMiscount:
		return "UnitTestMiscount"
	case BenchmarkMiscount:
		return "BenchmarkMiscount"
	case DocTestMiscount:
		return "DocTestMiscount"
	case MalformedDocTestLine:
		return "MalformedDocTestLine"
	case SectionOverrun:
		return "SectionOverrun"
	default:
		return "Unknown"
	}
}

// ParseError is the parser's single error type. LineNumber is 1-based;
// 0 means parsing failed before any line was consumed.
type ParseError struct {
	Kind       ErrorKind
	LineNumber int
	Line       string
	Message    string
}

func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s at line %d: %s (line text: %q)", e.Kind, e.LineNumber, e.Message, e.Line)
	}
	return fmt.Sprintf("%s at line %d (line text: %q)", e.Kind, e.LineNumber, e.Line)
}

// CrateIdentity is a set of borrowed views into the original listing buffer.
// All four fields are substrings of the input that produced them; they are
// only valid as long as that input is alive.
type CrateIdentity struct {
	FullName string
	Name     string
	UUID     string
	Basename string
}

// DocTest describes one documentation test.
type DocTest struct {
	Name string
	File string
	Line int
}

// CrateInventory is the per-crate test listing the parser produces.
type CrateInventory struct {
	Identity  CrateIdentity
	UnitTests []string
	DocTests  []DocTest
}

// lineCursor walks the input buffer one line at a time, tracking a 1-based
// line number for diagnostics.
type lineCursor struct {
	lines []string
	idx   int // index of the line last returned by next(); -1 before start
}

func newLineCursor(input string) *lineCursor {
	// Normalize CRLF without allocating per line.
	input = strings.ReplaceAll(input, "\r\n", "\n")
	var lines []string
	if input == "" {
		lines = nil
	} else {
		lines = strings.Split(input, "\n")
	}
	return &lineCursor{lines: lines, idx: -1}
}

func (c *lineCursor) next() (string, bool) {
	if c.idx+1 >= len(c.lines) {
		c.idx = len(c.lines)
		return "", false
	}
	c.idx++
	return c.lines[c.idx], true
}

func (c *lineCursor) currentLine() string {
	if c.idx < 0 || c.idx >= len(c.lines) {
		return ""
	}
	return c.lines[c.idx]
}

func (c *lineCursor) currentLineNumber() int {
	return c.idx + 1
}

const (
	runningPrefix  = "Running "
	docTestsPrefix = "Doc-tests "
)

// ParseListing parses a full test-harness listing buffer into an ordered
// sequence of per-crate test inventories. Parsing aborts at the first
// error encountered; no attempt is made to resynchronise.
func ParseListing(input string) ([]CrateInventory, *ParseError) {
	cur := newLineCursor(input)
	var crates []CrateInventory
	// basename -> index into crates, for Doc-tests attachment.
	byBasename := make(map[string]int)

	for {
		raw, ok := cur.next()
		if !ok {
			return crates, nil
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, runningPrefix):
			inv, perr := parseUnitSection(cur, line)
			if perr != nil {
				return nil, perr
			}
			byBasename[inv.Identity.Basename] = len(crates)
			crates = append(crates, *inv)

		case strings.HasPrefix(line, docTestsPrefix):
			basename := strings.TrimSpace(strings.TrimPrefix(line, docTestsPrefix))
			docTests, perr := parseDocSection(cur)
			if perr != nil {
				return nil, perr
			}
			if idx, found := byBasename[basename]; found {
				crates[idx].DocTests = append(crates[idx].DocTests, docTests...)
			} else {
				byBasename[basename] = len(crates)
				crates = append(crates, CrateInventory{
					Identity: CrateIdentity{
						FullName: basename,
						Name:     basename,
						UUID:     "",
						Basename: basename,
					},
					DocTests: docTests,
				})
			}

		default:
			// Preamble line (e.g. "Finished ..."); ignored.
		}
	}
}

// parseUnitSection consumes a RUNNING_LINE block: the Running line has
// already been matched in runningLine; it parses the crate identity, then
// collects TEST_LINEs until the summary, failing on SectionOverrun.
func parseUnitSection(cur *lineCursor, runningLine string) (*CrateInventory, *ParseError) {
	candidate := strings.TrimPrefix(runningLine, runningPrefix)
	identity, perr := parseCrateIdentity(candidate, cur)
	if perr != nil {
		return nil, perr
	}

	inv := &CrateInventory{Identity: identity}
	for {
		raw, ok := cur.next()
		if !ok {
			return nil, &ParseError{
				Kind:       UnexpectedEOF,
				LineNumber: cur.currentLineNumber(),
				Line:       cur.currentLine(),
				Message:    "expected summary line before end of input",
			}
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, runningPrefix) || strings.HasPrefix(line, docTestsPrefix) {
			return nil, &ParseError{
				Kind:       SectionOverrun,
				LineNumber: cur.currentLineNumber(),
				Line:       raw,
				Message:    "new section started before summary line",
			}
		}
		if n, m, ok := parseSummaryLine(line); ok {
			_ = m // benchmark count is accepted and ignored (per design notes)
			if n != len(inv.UnitTests) {
				return nil, &ParseError{
					Kind:       UnitTestMiscount,
					LineNumber: cur.currentLineNumber(),
					Line:       raw,
					Message:    fmt.Sprintf("declared %d tests, found %d", n, len(inv.UnitTests)),
				}
			}
			return inv, nil
		}
		name, isTest := parseTestLine(line)
		if !isTest {
			// Non-test, non-summary data line inside the block; skip it
			// (mirrors the harness's tolerance of stray lines).
			continue
		}
		inv.UnitTests = append(inv.UnitTests, name)
	}
}

// parseDocSection consumes a DOC_SECTION body (after the Doc-tests line).
func parseDocSection(cur *lineCursor) ([]DocTest, *ParseError) {
	var docTests []DocTest
	for {
		raw, ok := cur.next()
		if !ok {
			return nil, &ParseError{
				Kind:       UnexpectedEOF,
				LineNumber: cur.currentLineNumber(),
				Line:       cur.currentLine(),
				Message:    "expected summary line before end of input",
			}
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, runningPrefix) || strings.HasPrefix(line, docTestsPrefix) {
			return nil, &ParseError{
				Kind:       SectionOverrun,
				LineNumber: cur.currentLineNumber(),
				Line:       raw,
				Message:    "new section started before summary line",
			}
		}
		if n, m, ok := parseSummaryLine(line); ok {
			_ = m
			if n != len(docTests) {
				return nil, &ParseError{
					Kind:       DocTestMiscount,
					LineNumber: cur.currentLineNumber(),
					Line:       raw,
					Message:    fmt.Sprintf("declared %d tests, found %d", n, len(docTests)),
				}
			}
			return docTests, nil
		}
		dt, perr := parseDocTestLine(line, cur)
		if perr != nil {
			return nil, perr
		}
		docTests = append(docTests, dt)
	}
}

// parseCrateIdentity splits a trimmed candidate into full name, name,
// uuid and basename, validating the 16-hex-digit suffix when present.
func parseCrateIdentity(candidate string, cur *lineCursor) (CrateIdentity, *ParseError) {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return CrateIdentity{}, &ParseError{
			Kind:       MalformedCrateName,
			LineNumber: cur.currentLineNumber(),
			Line:       cur.currentLine(),
			Message:    "empty crate name",
		}
	}

	lastDash := strings.LastIndexByte(trimmed, '-')
	if lastDash == -1 {
		basename := trimmed
		if idx := strings.LastIndexByte(basename, '/'); idx != -1 {
			basename = basename[idx+1:]
		}
		return CrateIdentity{
			FullName: trimmed,
			Name:     trimmed,
			UUID:     "",
			Basename: basename,
		}, nil
	}

	name := trimmed[:lastDash]
	uuid := trimmed[lastDash+1:]
	if !isHex16(uuid) {
		return CrateIdentity{}, &ParseError{
			Kind:       MalformedUUID,
			LineNumber: cur.currentLineNumber(),
			Line:       cur.currentLine(),
			Message:    fmt.Sprintf("suffix %q is not 16 hex digits", uuid),
		}
	}

	basename := name
	if idx := strings.LastIndexByte(basename, '/'); idx != -1 {
		basename = basename[idx+1:]
	}

	return CrateIdentity{
		FullName: trimmed,
		Name:     name,
		UUID:     uuid,
		Basename: basename,
	}, nil
}

func isHex16(s string) bool {
	if len(s) != 16 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isHexDigit := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		if !isHexDigit {
			return false
		}
	}
	return true
}

// parseTestLine recognises "<name>: test" lines. Returns ok=false for any
// other shape (including summary lines, which the caller checks first).
func parseTestLine(line string) (string, bool) {
	const suffix = ": test"
	if !strings.HasSuffix(line, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(line, suffix)
	if name == "" {
		return "", false
	}
	return name, true
}

// parseSummaryLine parses "<n> test(s), <m> benchmark(s)". Any deviation
// is reported as ok=false — the caller treats the line as ordinary data,
// not as an error.
func parseSummaryLine(line string) (tests int, benchmarks int, ok bool) {
	parts := strings.SplitN(line, ", ", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	left, right := parts[0], parts[1]

	n, leftOK := parseCountedNoun(left, "test", "tests")
	if !leftOK {
		return 0, 0, false
	}
	m, rightOK := parseCountedNoun(right, "benchmark", "benchmarks")
	if !rightOK {
		return 0, 0, false
	}
	return n, m, true
}

func parseCountedNoun(s, singular, plural string) (int, bool) {
	var numPart string
	switch {
	case strings.HasSuffix(s, " "+plural):
		numPart = strings.TrimSuffix(s, " "+plural)
	case strings.HasSuffix(s, " "+singular):
		numPart = strings.TrimSuffix(s, " "+singular)
	default:
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(numPart))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// parseDocTestLine implements DOC_TEST_LINE parsing: "<file> - <name> (line <n>)[: test]".
func parseDocTestLine(line string, cur *lineCursor) (DocTest, *ParseError) {
	const sep = " - "
	sepIdx := strings.Index(line, sep)
	if sepIdx == -1 {
		return DocTest{}, &ParseError{
			Kind:       MalformedDocTestLine,
			LineNumber: cur.currentLineNumber(),
			Line:       cur.currentLine(),
			Message:    "missing ' - ' separator",
		}
	}
	file := line[:sepIdx]
	rest := line[sepIdx+len(sep):]
	rest = strings.TrimSuffix(rest, ": test")

	const lineMarker = " (line "
	markerIdx := strings.LastIndex(rest, lineMarker)
	if markerIdx == -1 || !strings.HasSuffix(rest, ")") {
		return DocTest{}, &ParseError{
			Kind:       MalformedDocTestLine,
			LineNumber: cur.currentLineNumber(),
			Line:       cur.currentLine(),
			Message:    "missing '(line N)' marker",
		}
	}
	name := rest[:markerIdx]
	numText := rest[markerIdx+len(lineMarker) : len(rest)-1]
	n, err := strconv.Atoi(numText)
	if err != nil {
		return DocTest{}, &ParseError{
			Kind:       MalformedDocTestLine,
			LineNumber: cur.currentLineNumber(),
			Line:       cur.currentLine(),
			Message:    fmt.Sprintf("non-numeric line marker %q", numText),
		}
	}

	return DocTest{Name: name, File: file, Line: n}, nil
}
