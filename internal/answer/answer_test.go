package answer

import "testing"

func TestIsCorrect_SingleVariant(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"apple", true},
		{" apple ", true},
		{"APPLE", true},
		{"Apple", true},
		{"apples", false},
		{"appl", false},
		{"", false},
		{"   ", false},
		{"\t\n", false},
	}

	for _, tc := range tests {
		got := IsCorrect("apple", tc.input)
		if got != tc.want {
			t.Errorf("IsCorrect(apple, %q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestIsCorrect_MultipleVariants(t *testing.T) {
	expected := "идти | ходить|Go"

	tests := []struct {
		input string
		want  bool
	}{
		{"идти", true},
		{"ходить", true},
		{"ХОДИТЬ", true},
		{"  Идти ", true},
		{"go", true},
		{"идти|ходить", false},
		{"бежать", false},
		{"", false},
	}

	for _, tc := range tests {
		got := IsCorrect(expected, tc.input)
		if got != tc.want {
			t.Errorf("IsCorrect(%q, %q) = %v, want %v", expected, tc.input, got, tc.want)
		}
	}
}

func TestIsCorrect_EmptyVariantsNeverMatch(t *testing.T) {
	if IsCorrect("a||b", " ") {
		t.Error("blank input matched an empty variant")
	}
	if IsCorrect("", "x") {
		t.Error("input matched an empty expected value")
	}
}

func TestPrimary(t *testing.T) {
	tests := []struct {
		expected string
		want     string
	}{
		{"идти|ходить", "идти"},
		{"  dog  ", "dog"},
		{"| cat | kitten", "cat"},
		{"", ""},
	}

	for _, tc := range tests {
		got := Primary(tc.expected)
		if got != tc.want {
			t.Errorf("Primary(%q) = %q, want %q", tc.expected, got, tc.want)
		}
	}
}

func TestVariants(t *testing.T) {
	got := Variants(" a | b |c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Variants() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Variants()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
