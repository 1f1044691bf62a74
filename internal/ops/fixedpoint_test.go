package ops

import (
	"testing"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

func TestParseScaled(t *testing.T) {
	cases := []struct {
		in    string
		scale int
		want  int64
	}{
		{"0", 4, 0},
		{"1", 4, 10_000},
		{"1.5", 4, 15_000},
		{"0.0001", 4, 1},
		{"101.25", 2, 10_125},
		{"-3.5", 2, -350},
		{"+2", 0, 2},
		{"42", 0, 42},
		{"1.230000", 2, 123},
		{".5", 1, 5},
		{"7.", 1, 70},
	}
	for _, tc := range cases {
		got, err := ParseScaled(tc.in, tc.scale)
		if err != nil {
			t.Fatalf("ParseScaled(%q, %d): %v", tc.in, tc.scale, err)
		}
		if got != tc.want {
			t.Fatalf("ParseScaled(%q, %d): got %d want %d", tc.in, tc.scale, got, tc.want)
		}
	}
}

func TestParseScaledRejectsBadInput(t *testing.T) {
	cases := []struct {
		in    string
		scale int
	}{
		{"", 2},
		{".", 2},
		{"abc", 2},
		{"1.2.3", 2},
		{"1,5", 2},
		{"1.005", 2}, // precision beyond scale
		{"9223372036854775807", 4},
	}
	for _, tc := range cases {
		if _, err := ParseScaled(tc.in, tc.scale); !errors.Is(err, exception.ErrConfigInvalidDecimal) {
			t.Fatalf("ParseScaled(%q, %d): got %v want ErrConfigInvalidDecimal", tc.in, tc.scale, err)
		}
	}

	if _, err := ParseScaled("1", -1); !errors.Is(err, exception.ErrConfigInvalidScale) {
		t.Fatalf("negative scale: got %v", err)
	}
}
