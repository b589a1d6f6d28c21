package errors

import (
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
		wantSev Severity
	}{
		{
			name:    "readonly mutation",
			code:    "R001",
			wantMsg: "Mutation of a read-only target ignored",
			wantCat: CategoryRuntime,
			wantSev: SeverityWarning,
		},
		{
			name:    "recursion limit",
			code:    "R002",
			wantMsg: "Maximum recursive updates exceeded",
			wantCat: CategoryScheduler,
			wantSev: SeverityError,
		},
		{
			name:    "scenario path",
			code:    "S002",
			wantMsg: "Unknown scenario path",
			wantCat: CategoryScenario,
			wantSev: SeverityError,
		},
		{
			name:    "unknown error code",
			code:    "R999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Severity != tt.wantSev {
				t.Errorf("Severity = %q, want %q", err.Severity, tt.wantSev)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "flag %q is required", "--keys")
	if err.Message != `flag "--keys" is required` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
}

func TestReactorError_Error(t *testing.T) {
	err := New("R001")
	if got := err.Error(); got != "R001: Mutation of a read-only target ignored" {
		t.Errorf("Error() = %q", got)
	}

	err = New("S001").Wrap(stderrors.New("yaml: line 3: did not find expected key"))
	if !strings.HasSuffix(err.Error(), "did not find expected key") {
		t.Errorf("Error() = %q, want wrapped cause suffix", err.Error())
	}
}

func TestReactorError_WithLocation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	content := "state:\n  a: 1\nsteps:\n  - set: missing\n    value: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	err := New("S002").WithLocation(path, 4, 10)
	if err.Location == nil {
		t.Fatal("Location is nil")
	}
	if err.Location.Line != 4 || err.Location.Column != 10 {
		t.Errorf("Location = %v", err.Location)
	}
	if len(err.Context) == 0 {
		t.Fatal("Context is empty")
	}
	found := false
	for _, line := range err.Context {
		if strings.Contains(line, "set: missing") {
			found = true
		}
	}
	if !found {
		t.Errorf("Context %q does not contain the located line", err.Context)
	}
}

func TestReactorError_Unwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("C001").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "C001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	re := New("C002")
	if FromError(re, "C001") != re {
		t.Error("FromError should return an existing ReactorError unchanged")
	}

	wrapped := FromError(stderrors.New("bad"), "C001")
	if wrapped.Code != "C001" || wrapped.Wrapped == nil {
		t.Errorf("FromError = %+v", wrapped)
	}
}

func TestLocation_String(t *testing.T) {
	tests := []struct {
		loc  *Location
		want string
	}{
		{nil, ""},
		{&Location{File: "a.yaml", Line: 3}, "a.yaml:3"},
		{&Location{File: "a.yaml", Line: 3, Column: 7}, "a.yaml:3:7"},
	}
	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("R002").WithSuggestion("Stop writing state the effect reads")
	out := err.Format()

	for _, want := range []string{
		"ERROR R002: Maximum recursive updates exceeded",
		"Hint: Stop writing state the effect reads",
		"Learn more: " + docBase + "R002",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	warn := New("R001").Format()
	if !strings.Contains(warn, "WARNING R001:") {
		t.Errorf("warning label missing in:\n%s", warn)
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("S003")
	err.Location = &Location{File: "s.yaml", Line: 9, Column: 5}
	if got := err.FormatCompact(); got != "s.yaml:9:5: S003: Invalid scenario step" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("S002")
	err.Location = &Location{File: "s.yaml", Line: 2, Column: 3}

	var decoded map[string]any
	if e := json.Unmarshal([]byte(err.FormatJSON()), &decoded); e != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", e)
	}
	if decoded["code"] != "S002" {
		t.Errorf("code = %v", decoded["code"])
	}
	loc, ok := decoded["location"].(map[string]any)
	if !ok || loc["line"] != float64(2) {
		t.Errorf("location = %v", decoded["location"])
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) < 10 {
		t.Fatalf("expected at least 10 codes, got %d", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}

func TestGetTemplate(t *testing.T) {
	tmpl, ok := GetTemplate("R004")
	if !ok {
		t.Fatal("R004 not registered")
	}
	if tmpl.Category != CategoryWatch {
		t.Errorf("Category = %q", tmpl.Category)
	}
	if _, ok := GetTemplate("X000"); ok {
		t.Error("X000 should not be registered")
	}
}

func TestRegister(t *testing.T) {
	Register("X001", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "X001")

	if got := New("X001").Message; got != "custom" {
		t.Errorf("Message = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six seven" {
		t.Errorf("wrapText lost words: %q", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("empty text should produce no lines")
	}
}
