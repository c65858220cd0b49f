package dload

import "testing"

func TestDigestHexKnownVectors(t *testing.T) {
	tests := []struct {
		algo string
		in   string
		want string
	}{
		{"md5", "", "d41d8cd98f00b204e9800998ecf8427e"},
		{"sha1", "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"sha256", "abc", "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}
	for _, tc := range tests {
		if got := digestHex(tc.algo, []byte(tc.in)); got != tc.want {
			t.Errorf("digestHex(%s, %q) = %s, want %s", tc.algo, tc.in, got, tc.want)
		}
	}
}
