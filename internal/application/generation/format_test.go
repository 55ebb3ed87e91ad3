package generation

import (
	"strings"
	"testing"
)

func TestFormatMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses blank runs before list",
			in:   "# Title\nSome text\n\n\n\n- item1\n- item2",
			want: "# Title\nSome text\n\n- item1\n- item2",
		},
		{
			name: "inserts blank before list after prose",
			in:   "intro paragraph\n- first\n- second",
			want: "intro paragraph\n\n- first\n- second",
		},
		{
			name: "inserts blank before mid-document heading",
			in:   "closing paragraph\n## Next Section\nbody",
			want: "closing paragraph\n\n## Next Section\nbody",
		},
		{
			name: "strips trailing whitespace and edge blanks",
			in:   "\n\nline one   \nline two\t\n\n\n",
			want: "line one\nline two",
		},
		{
			name: "numbered list treated as list",
			in:   "steps\n1. first\n2. second",
			want: "steps\n\n1. first\n2. second",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatMarkdown(tc.in)
			if got != tc.want {
				t.Fatalf("FormatMarkdown(%q)\n got: %q\nwant: %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatMarkdownIdempotent(t *testing.T) {
	inputs := []string{
		"# Title\nSome text\n\n\n\n- item1\n- item2",
		"a\n# H1\nb\n* x\n* y\n\n\nend   ",
		"## only heading",
		"para one\n\npara two\n\n1. a\n2. b\n# tail",
	}
	for _, in := range inputs {
		once := FormatMarkdown(in)
		twice := FormatMarkdown(once)
		if once != twice {
			t.Fatalf("not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
}

func TestFormatMarkdownNeverLeavesBlankRuns(t *testing.T) {
	out := FormatMarkdown("a\n\n\n\nb\n\n\n\n\nc")
	if strings.Contains(out, "\n\n\n") {
		t.Fatalf("output contains blank run: %q", out)
	}
}
