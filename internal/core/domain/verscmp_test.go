package domain_test

import (
	"testing"

	"github.com/lu-zero/ldconfig/internal/core/domain"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int // sign only
	}{
		{"equal", "libfoo.so.1", "libfoo.so.1", 0},
		{"numeric suffix", "libfoo.so.2", "libfoo.so.1", 1},
		{"numeric not lexical", "libfoo.so.10", "libfoo.so.9", 1},
		{"multi component", "libfoo.so.1.2.3", "libfoo.so.1.2.10", -1},
		{"prefix shorter", "libfoo.so", "libfoo.so.1", -1},
		{"lexical fallback", "libbar.so.1", "libfoo.so.1", -1},
		{"leading zeros compare numerically", "libfoo.so.02", "libfoo.so.2", 0},
		{"mixed digit boundary", "libfoo-2.so", "libfoo-10.so", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.CompareVersions(tt.a, tt.b)
			if sign(got) != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
			// Antisymmetry
			if sign(domain.CompareVersions(tt.b, tt.a)) != -tt.want {
				t.Errorf("CompareVersions(%q, %q) not antisymmetric", tt.b, tt.a)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
