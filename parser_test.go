package crucible

import (
	"strings"
	"testing"
)

func TestParseListing_EmptyInput(t *testing.T) {
	// given / when
	crates, err := ParseListing("")

	// then
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates) != 0 {
		t.Fatalf("expected no crates, got %d", len(crates))
	}
}

func TestParseListing_PreambleIsIgnored(t *testing.T) {
	input := "Finished release [optimized] target(s) in 0.4s\n" +
		"     Running /abc-9bdf7ee7378a8684\n" +
		"0 tests, 0 benchmarks\n"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates) != 1 {
		t.Fatalf("expected 1 crate, got %d", len(crates))
	}
}

func TestParseListing_ScenarioOne_CrateIdentity(t *testing.T) {
	input := "  Running /abc-9bdf7ee7378a8684\n0 tests, 0 benchmarks"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates) != 1 {
		t.Fatalf("expected 1 crate, got %d", len(crates))
	}
	id := crates[0].Identity
	if id.FullName != "/abc-9bdf7ee7378a8684" {
		t.Errorf("full_name = %q", id.FullName)
	}
	if id.Name != "/abc" {
		t.Errorf("name = %q", id.Name)
	}
	if id.UUID != "9bdf7ee7378a8684" {
		t.Errorf("uuid = %q", id.UUID)
	}
	if id.Basename != "abc" {
		t.Errorf("basename = %q", id.Basename)
	}
	if len(crates[0].UnitTests) != 0 || len(crates[0].DocTests) != 0 {
		t.Errorf("expected no tests, got %+v", crates[0])
	}
}

func TestParseListing_UUID_NoDashAccepted(t *testing.T) {
	input := "Running mycrate\n0 tests, 0 benchmarks"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := crates[0].Identity
	if id.Name != "mycrate" || id.Basename != "mycrate" || id.UUID != "" {
		t.Errorf("got %+v", id)
	}
}

func TestParseListing_UUID_WrongLengthFails(t *testing.T) {
	input := "Running mycrate-abc123\n0 tests, 0 benchmarks"

	_, err := ParseListing(input)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Kind != MalformedUUID {
		t.Errorf("kind = %v, want MalformedUuid", err.Kind)
	}
}

func TestParseListing_UUID_NonHexFails(t *testing.T) {
	input := "Running mycrate-zzzzzzzzzzzzzzzz\n0 tests, 0 benchmarks"

	_, err := ParseListing(input)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Kind != MalformedUUID {
		t.Errorf("kind = %v, want MalformedUuid", err.Kind)
	}
}

func TestParseListing_UnitTestMiscount(t *testing.T) {
	input := "Running mycrate-9bdf7ee7378a8684\n" +
		"a::b::c: test\n" +
		"d::e::f: test\n" +
		"3 tests, 0 benchmarks"

	_, err := ParseListing(input)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Kind != UnitTestMiscount {
		t.Errorf("kind = %v, want UnitTestMiscount", err.Kind)
	}
	if !strings.Contains(err.Message, "found 2") {
		t.Errorf("message = %q, want it to mention found 2", err.Message)
	}
}

func TestParseListing_SectionOverrun(t *testing.T) {
	input := "Running crate-one-9bdf7ee7378a8684\n" +
		"a::b: test\n" +
		"Running crate-two-9bdf7ee7378a8684\n" +
		"1 tests, 0 benchmarks"

	_, err := ParseListing(input)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Kind != SectionOverrun {
		t.Errorf("kind = %v, want SectionOverrun", err.Kind)
	}
}

func TestParseListing_SingularForms(t *testing.T) {
	input := "Running crate-9bdf7ee7378a8684\n" +
		"a::b: test\n" +
		"1 test, 1 benchmark"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates[0].UnitTests) != 1 {
		t.Errorf("unit tests = %d, want 1", len(crates[0].UnitTests))
	}
}

func TestParseListing_TwoCratesPlusDocTests(t *testing.T) {
	var b strings.Builder
	b.WriteString("Running bin-crate-9bdf7ee7378a8684\n")
	for i := 0; i < 7; i++ {
		b.WriteString("bin::test_")
		b.WriteString(string(rune('a' + i)))
		b.WriteString(": test\n")
	}
	b.WriteString("7 tests, 0 benchmarks\n")

	b.WriteString("Running libcrate-aaaaaaaaaaaaaaaa\n")
	for i := 0; i < 6; i++ {
		b.WriteString("lib::test_")
		b.WriteString(string(rune('a' + i)))
		b.WriteString(": test\n")
	}
	b.WriteString("6 tests, 0 benchmarks\n")

	b.WriteString("Doc-tests libcrate\n")
	for i := 0; i < 4; i++ {
		b.WriteString("src/lib.rs - doc_test_")
		b.WriteString(string(rune('a' + i)))
		b.WriteString(" (line 10): test\n")
	}
	b.WriteString("4 tests, 0 benchmarks\n")

	crates, err := ParseListing(b.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates) != 2 {
		t.Fatalf("expected 2 crates, got %d", len(crates))
	}
	if len(crates[0].UnitTests) != 7 || len(crates[0].DocTests) != 0 {
		t.Errorf("bin crate: unit=%d doc=%d", len(crates[0].UnitTests), len(crates[0].DocTests))
	}
	if len(crates[1].UnitTests) != 6 || len(crates[1].DocTests) != 4 {
		t.Errorf("lib crate: unit=%d doc=%d", len(crates[1].UnitTests), len(crates[1].DocTests))
	}
}

func TestParseListing_DocTestsWithoutPriorRunning(t *testing.T) {
	input := "Doc-tests winterfell\n" +
		"src/lib.rs - it_works (line 999): test\n" +
		"1 tests, 0 benchmarks"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates) != 1 {
		t.Fatalf("expected 1 crate, got %d", len(crates))
	}
	id := crates[0].Identity
	if id.FullName != "winterfell" || id.UUID != "" || id.Basename != "winterfell" {
		t.Errorf("got %+v", id)
	}
	if len(crates[0].DocTests) != 1 || crates[0].DocTests[0].Line != 999 {
		t.Errorf("got %+v", crates[0].DocTests)
	}
}

func TestParseListing_MalformedDocTestLine(t *testing.T) {
	input := "Doc-tests winterfell\n" +
		"this is not a doc test line\n" +
		"1 tests, 0 benchmarks"

	_, err := ParseListing(input)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Kind != MalformedDocTestLine {
		t.Errorf("kind = %v, want MalformedDocTestLine", err.Kind)
	}
}

func TestParseListing_BenchmarkCountAcceptedAndIgnored(t *testing.T) {
	input := "Running crate-9bdf7ee7378a8684\n" +
		"a::b: test\n" +
		"1 tests, 3 benchmarks"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates[0].UnitTests) != 1 {
		t.Errorf("unit tests = %d", len(crates[0].UnitTests))
	}
}

func TestParseListing_BlankLinesToleratedWithinSection(t *testing.T) {
	input := "Running crate-9bdf7ee7378a8684\n" +
		"a::b: test\n\n\n" +
		"c::d: test\n" +
		"2 tests, 0 benchmarks"

	crates, err := ParseListing(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crates[0].UnitTests) != 2 {
		t.Errorf("unit tests = %d", len(crates[0].UnitTests))
	}
}

func TestParseListing_UnexpectedEOFInsideSection(t *testing.T) {
	input := "Running crate-9bdf7ee7378a8684\na::b: test"

	_, err := ParseListing(input)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Kind != UnexpectedEOF {
		t.Errorf("kind = %v, want UnexpectedEoF", err.Kind)
	}
}
