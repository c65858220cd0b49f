package dload

import "testing"

func TestSamplesPerShardOOM(t *testing.T) {
	tests := []struct {
		samples int
		want    int
	}{
		{1, 1},
		{10, 1},
		{11, 2},
		{1000, 3},
		{100000, 5},
	}
	for _, tc := range tests {
		if got := SamplesPerShardOOM(tc.samples); got != tc.want {
			t.Errorf("SamplesPerShardOOM(%d) = %d, want %d", tc.samples, got, tc.want)
		}
	}
}

func TestFormatKey(t *testing.T) {
	tests := []struct {
		rowIndex, shardID, p, q int
		want                    string
	}{
		{7, 3, 5, 5, "0000300007"},
		{0, 0, 1, 5, "000000"},
		{42, 1, 2, 3, "00142"},
	}
	for _, tc := range tests {
		got := FormatKey(tc.rowIndex, tc.shardID, tc.p, tc.q)
		if got != tc.want {
			t.Errorf("FormatKey(%d,%d,%d,%d) = %q, want %q", tc.rowIndex, tc.shardID, tc.p, tc.q, got, tc.want)
		}
		if len(got) != tc.p+tc.q {
			t.Errorf("FormatKey(%d,%d,%d,%d) width = %d, want %d", tc.rowIndex, tc.shardID, tc.p, tc.q, len(got), tc.p+tc.q)
		}
	}
}
