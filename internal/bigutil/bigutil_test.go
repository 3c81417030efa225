package bigutil

import (
	"math/big"
	"testing"
)

func TestNormalizeUint(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"0", "0"},
		{"350000000", "350000000"},
		{"350000000.999", "350000000"},
		{"-5", "0"},
		{"  1000  ", "1000"},
	}
	for _, c := range cases {
		got, err := NormalizeUint(c.in)
		if err != nil {
			t.Fatalf("NormalizeUint(%q) unexpected error: %v", c.in, err)
		}
		if got.String() != c.want {
			t.Errorf("NormalizeUint(%q) = %s, want %s", c.in, got.String(), c.want)
		}
	}
}

func TestNormalizeUintRejectsNonFinite(t *testing.T) {
	for _, in := range []string{"NaN", "Infinity", "not-a-number", "0x5"} {
		if _, err := NormalizeUint(in); err == nil {
			t.Errorf("NormalizeUint(%q) expected error, got none", in)
		}
	}
}

func TestCeilDiv(t *testing.T) {
	netOut := big.NewInt(350000000)
	fb := big.NewInt(25)
	num := new(big.Int).Mul(netOut, big.NewInt(10000))
	den := new(big.Int).Sub(big.NewInt(10000), fb)

	got := CeilDiv(num, den)
	want := "350877193"
	if got.String() != want {
		t.Fatalf("CeilDiv = %s, want %s", got.String(), want)
	}

	// floor(grossOut*(10000-fb)/10000) >= netOut (invariant 3).
	check := new(big.Int).Mul(got, den)
	check.Div(check, big.NewInt(10000))
	if check.Cmp(netOut) < 0 {
		t.Fatalf("invariant 3 violated: floor(grossOut*(10000-fb)/10000)=%s < netOut=%s", check.String(), netOut.String())
	}
}

func TestClampBps(t *testing.T) {
	if ClampBps(-1) != 0 {
		t.Fatal("expected clamp to 0")
	}
	if ClampBps(20000) != 9999 {
		t.Fatal("expected clamp to 9999")
	}
	if ClampBps(25) != 25 {
		t.Fatal("expected passthrough")
	}
}
