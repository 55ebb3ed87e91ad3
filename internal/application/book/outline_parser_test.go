package book

import "testing"

func TestParseIdeation(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantT    string
		wantDesc string
	}{
		{
			name:     "plain fields",
			raw:      "Title: Systems Thinking\nDescription: A practical guide to feedback loops.",
			wantT:    "Systems Thinking",
			wantDesc: "A practical guide to feedback loops.",
		},
		{
			name:     "bold markdown prefixes",
			raw:      "**Title:** Deep Work Habits\n**Description:** Build focus in a noisy world.",
			wantT:    "Deep Work Habits",
			wantDesc: "Build focus in a noisy world.",
		},
		{
			name:     "quoted title",
			raw:      `Title: "The Long Game"` + "\nDescription: Patience as strategy.",
			wantT:    "The Long Game",
			wantDesc: "Patience as strategy.",
		},
		{
			name:     "multiline description stops at key takeaways",
			raw:      "Title: T\nDescription: First line.\nSecond line.\nKey Takeaways:\n- something",
			wantT:    "T",
			wantDesc: "First line. Second line.",
		},
		{
			name:  "missing fields stay empty",
			raw:   "Here are my thoughts about the book.",
			wantT: "",
		},
		{
			name:     "case insensitive prefixes",
			raw:      "title: lower\ndescription: also lower",
			wantT:    "lower",
			wantDesc: "also lower",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseIdeation(tt.raw)
			if got.Title != tt.wantT {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantT)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
		})
	}
}

func TestParseOutline(t *testing.T) {
	raw := `Here is the outline:

1: Why Systems Matter
Description: Sets up the core vocabulary.
2. Feedback Loops
Description: Reinforcing and balancing loops.
Description: With real-world cases.
3) "Stocks and Flows"

notes that should be ignored
0: invalid number`

	entries := parseOutline(raw)
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	if entries[0].Number != 1 || entries[0].Title != "Why Systems Matter" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[0].Description != "Sets up the core vocabulary." {
		t.Errorf("entry 0 description = %q", entries[0].Description)
	}

	// 连续的 Description 行拼接到同一条目
	if entries[1].Description != "Reinforcing and balancing loops. With real-world cases." {
		t.Errorf("entry 1 description = %q", entries[1].Description)
	}

	// 引号与不同编号分隔符都能识别
	if entries[2].Number != 3 || entries[2].Title != "Stocks and Flows" {
		t.Errorf("entry 2 = %+v", entries[2])
	}
}

func TestParseOutlineGarbage(t *testing.T) {
	if entries := parseOutline("no numbered lines here\njust prose"); entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
	if entries := parseOutline(""); entries != nil {
		t.Errorf("entries for empty input = %v, want nil", entries)
	}
}

func TestParseOutlineDescriptionBeforeEntries(t *testing.T) {
	// 条目出现之前的 Description 行没有归属，应被跳过
	entries := parseOutline("Description: orphan\n1: First Chapter")
	if len(entries) != 1 || entries[0].Description != "" {
		t.Errorf("entries = %+v", entries)
	}
}
