package llm

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold and headings",
			in:   "## Tips\n**Be on time** and *smile*.",
			want: "Tips\nBe on time and smile.",
		},
		{
			name: "bullets",
			in:   "Try these:\n- Research the company\n• Practice answers\n  - Ask questions",
			want: "Try these:\nResearch the company\nPractice answers\nAsk questions",
		},
		{
			name: "numbered and roman lists",
			in:   "1. First step\n2. Second step\nIV. Fourth",
			want: "First step\nSecond step\nFourth",
		},
		{
			name: "blank lines and spaces collapse",
			in:   "Hello   there\n\n\n   \nGeneral\t\tKenobi  ",
			want: "Hello there\nGeneral Kenobi",
		},
		{
			name: "inline hyphen and version numbers survive",
			in:   "A well-known tool, version 2. Works fine.",
			want: "A well-known tool, version 2. Works fine.",
		},
		{
			name: "code ticks",
			in:   "Use `Tests` section",
			want: "Use Tests section",
		},
		{
			name: "crlf",
			in:   "line one\r\n\r\nline two",
			want: "line one\nline two",
		},
		{
			name: "only markdown",
			in:   "***",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}
