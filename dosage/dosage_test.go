// elgeno: a high-performance tool for converting genotype files.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elgeno/blob/master/LICENSE.txt>.

package dosage

import "testing"

func TestParseDiploidPair(t *testing.T) {
	if c := ParseDiploidPair('0', '1'); c != Het {
		t.Errorf("ParseDiploidPair('0', '1') = %v", c)
	}
	if c := ParseDiploidPair('1', '1'); c != HomAlt {
		t.Errorf("ParseDiploidPair('1', '1') = %v", c)
	}
	if c := ParseDiploidPair('0', '0'); c != HomRef {
		t.Errorf("ParseDiploidPair('0', '0') = %v", c)
	}
	if c := ParseDiploidPair('.', '0'); c != Missing {
		t.Errorf("ParseDiploidPair('.', '0') = %v", c)
	}
	if c := ParseDiploidPair('0', '2'); c != Missing {
		t.Errorf("multi-allelic ParseDiploidPair('0', '2') = %v", c)
	}
}

func TestParseDiploidPairTotal(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			c := ParseDiploidPair(byte(a), byte(b))
			valid := (a == '0' || a == '1') && (b == '0' || b == '1')
			if valid && c != Code(a-'0'+b-'0') {
				t.Fatalf("ParseDiploidPair(%q, %q) = %v", a, b, c)
			}
			if !valid && c != Missing {
				t.Fatalf("ParseDiploidPair(%q, %q) = %v, expected missing", a, b, c)
			}
		}
	}
}

func TestParseVCFToken(t *testing.T) {
	if c := ParseVCFToken("0|1:35:4"); c != Het {
		t.Errorf("ParseVCFToken with format data = %v", c)
	}
	if c := ParseVCFToken("1/1"); c != HomAlt {
		t.Errorf("ParseVCFToken(1/1) = %v", c)
	}
	if c := ParseVCFToken("./."); c != Missing {
		t.Errorf("ParseVCFToken(./.) = %v", c)
	}
	if c := ParseVCFToken("0"); c != Missing {
		t.Errorf("haploid ParseVCFToken(0) = %v", c)
	}
	if c := ParseVCFToken(""); c != Missing {
		t.Errorf("empty ParseVCFToken = %v", c)
	}
}

func TestParseHaplotypeCall(t *testing.T) {
	if c := ParseHaplotypeCall("AA", 'A'); c != HomRef {
		t.Errorf("AA = %v", c)
	}
	if c := ParseHaplotypeCall("AG", 'A'); c != Het {
		t.Errorf("AG = %v", c)
	}
	if c := ParseHaplotypeCall("GA", 'A'); c != Het {
		t.Errorf("GA = %v", c)
	}
	if c := ParseHaplotypeCall("GG", 'A'); c != HomAlt {
		t.Errorf("GG = %v", c)
	}
	if c := ParseHaplotypeCall("NN", 'A'); c != Missing {
		t.Errorf("NN = %v", c)
	}
	if c := ParseHaplotypeCall("A", 'A'); c != HomRef {
		t.Errorf("A = %v", c)
	}
	if c := ParseHaplotypeCall("R", 'A'); c != Het {
		t.Errorf("R = %v", c)
	}
	if c := ParseHaplotypeCall("T", 'A'); c != HomAlt {
		t.Errorf("T = %v", c)
	}
	for _, token := range []string{"+", "0", "-", "N", "X", "", "AAA", "A-"} {
		if c := ParseHaplotypeCall(token, 'A'); c != Missing {
			t.Errorf("%q = %v, expected missing", token, c)
		}
	}
	if c := ParseHaplotypeCall("N", 'N'); c != Missing {
		t.Errorf("N with major N = %v", c)
	}
}

func TestParseHaplotypeCallTotal(t *testing.T) {
	for a := 0; a < 256; a++ {
		c := ParseHaplotypeCall(string([]byte{byte(a)}), 'C')
		if c != Missing && (c < HomRef || c > HomAlt) {
			t.Fatalf("ParseHaplotypeCall(%q) = %v", a, c)
		}
		for b := 0; b < 256; b++ {
			c := ParseHaplotypeCall(string([]byte{byte(a), byte(b)}), 'C')
			if c != Missing && (c < HomRef || c > HomAlt) {
				t.Fatalf("ParseHaplotypeCall(%q%q) = %v", a, b, c)
			}
		}
	}
}

func TestMajorAllele(t *testing.T) {
	if m := MajorAllele("A/G"); m != 'A' {
		t.Errorf("MajorAllele(A/G) = %c", m)
	}
	if m := MajorAllele("ACGT/A"); m != 'N' {
		t.Errorf("MajorAllele(ACGT/A) = %c", m)
	}
	if m := MajorAllele(""); m != 'N' {
		t.Errorf("MajorAllele of empty field = %c", m)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := map[string]Code{
		"0": HomRef, "1": Het, "2": HomAlt, " 2 ": HomAlt, "1.0": Het,
		"NA": Missing, ".": Missing, "-9": Missing, "0.5": Missing, "": Missing, "x": Missing,
	}
	for token, expected := range cases {
		if c := ParseNumeric(token); c != expected {
			t.Errorf("ParseNumeric(%q) = %v, expected %v", token, c, expected)
		}
	}
}
