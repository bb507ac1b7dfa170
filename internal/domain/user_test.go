package domain

import "testing"

func TestNormalizeAddress(t *testing.T) {
	const canonical = "0x52908400098527886e0f7030069857d2e4169ee7"

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"canonical", canonical, canonical},
		{"checksummed", "0x52908400098527886E0F7030069857D2E4169EE7", canonical},
		{"no prefix", "52908400098527886e0f7030069857d2e4169ee7", canonical},
		{"upper prefix", "0X52908400098527886E0F7030069857D2E4169EE7", canonical},
		{"padded", "  52908400098527886E0F7030069857D2E4169EE7\n", canonical},
		{"not an address", " Alice ", "alice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeAddress(tc.in); got != tc.want {
				t.Fatalf("NormalizeAddress(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
