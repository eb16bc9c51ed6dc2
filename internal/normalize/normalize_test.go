package normalize

import (
	"strings"
	"testing"
)

func TestNormalize_WhitespaceCollapse(t *testing.T) {
	input := "State v. Smith,\n\n  171   Wn.2d \t 486"
	want := "State v. Smith, 171 Wn.2d 486"

	got := Normalize(input)
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestNormalize_OCRArtifacts(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"smart quotes", "“Brown v. Board”", `"Brown v. Board"`},
		{"curly apostrophe", "O’Brien v. Papa Gino’s", "O'Brien v. Papa Gino's"},
		{"em dash", "486—493", "486-493"},
		{"soft hyphen", "juris­diction", "jurisdiction"},
		{"fi ligature", "afﬁrmed", "affirmed"},
		{"no-break space", "347 U.S. 483", "347 U.S. 483"},
		{"byte order mark", "\ufeff347 U.S. 483", "347 U.S. 483"},
		{"zero-width space", "347​ U.S. 483", "347 U.S. 483"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNormalize_PreservesCitationCharacters(t *testing.T) {
	input := "42 U.S.C. § 1983; Brown v. Board of Education, 347 U.S. 483, 486 (1954)"

	got := Normalize(input)
	if got != input {
		t.Errorf("Citation-relevant characters must survive, got %q", got)
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	inputs := []string{
		"State v. Smith, 171 Wn.2d 486, 493, 256 P.3d 321 (2011).",
		"“Quoted” — with artifacts­ and   runs\n\nof space.",
		"",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize is not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalize_InvalidUTF8PassThrough(t *testing.T) {
	input := "valid prefix \xff\xfe suffix"

	got := Normalize(input)
	if got != input {
		t.Errorf("Invalid UTF-8 should pass through unchanged, got %q", got)
	}
}

func TestLooksLikeHTML(t *testing.T) {
	if !LooksLikeHTML("<!DOCTYPE html><html><body>x</body></html>") {
		t.Error("Expected HTML document to be detected")
	}
	if LooksLikeHTML("Brown v. Board of Education, 347 U.S. 483 (1954)") {
		t.Error("Expected plain text not to be detected as HTML")
	}
}

func TestStripHTML(t *testing.T) {
	blob := `
	<html>
	<head><title>Opinion</title><script>var x = 1;</script></head>
	<body>
		<p>State v. Smith, 171 Wn.2d 486 (2011).</p>
		<p>The court held otherwise.</p>
	</body>
	</html>
	`

	text := StripHTML(blob)
	if !strings.Contains(text, "State v. Smith, 171 Wn.2d 486 (2011).") {
		t.Errorf("Expected citation text to survive stripping, got %q", text)
	}
	if strings.Contains(text, "var x") {
		t.Error("Script content must be removed")
	}
}
