package phoneme

import "testing"

func TestCardinal(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "zero"},
		{7, "seven"},
		{15, "fifteen"},
		{42, "forty two"},
		{100, "one hundred"},
		{305, "three hundred five"},
		{1000, "one thousand"},
		{1234, "one thousand two hundred thirty four"},
		{2_000_000, "two million"},
		{-3, "minus three"},
	}
	for _, tc := range cases {
		if got := cardinal(tc.n); got != tc.want {
			t.Fatalf("cardinal(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestOrdinal(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1, "first"},
		{2, "second"},
		{3, "third"},
		{4, "fourth"},
		{12, "twelfth"},
		{20, "twentieth"},
		{21, "twenty first"},
		{100, "one hundredth"},
	}
	for _, tc := range cases {
		if got := ordinal(tc.n); got != tc.want {
			t.Fatalf("ordinal(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestYearWords(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1984, "nineteen eighty four"},
		{2000, "twenty hundred"},
		{2005, "twenty oh five"},
		{800, "eight hundred"},
	}
	for _, tc := range cases {
		if got := yearWords(tc.n); got != tc.want {
			t.Fatalf("yearWords(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestConvertNumberUnknownConverter(t *testing.T) {
	if _, err := convertNumber("3", "bogus"); err == nil {
		t.Fatal("expected error for unknown converter")
	}
}
