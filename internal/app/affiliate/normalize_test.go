package affiliate

import (
	"errors"
	"testing"
)

func TestNormalizeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"garbage", "not a url at all"},
		{"empty", ""},
		{"no host", "https:///dp/B0ABCD1234"},
		{"javascript scheme", "javascript:alert(1)"},
		{"file scheme", "file:///etc/passwd"},
		{"ftp scheme", "ftp://example.com/file"},
		{"scheme relative", "//www.amazon.com/dp/B0ABCD1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in)
			if !errors.Is(err, ErrInvalidURL) {
				t.Fatalf("Normalize(%q): got err %v, want ErrInvalidURL", tt.in, err)
			}
		})
	}
}

func TestNormalizeKeepsQueryAndDetectsFamily(t *testing.T) {
	n, err := Normalize("https://www.amazon.co.uk/dp/B0ABCD1234?ref=xyz&th=1")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if n.Family() != FamilyAmazon {
		t.Errorf("family: got %v, want amazon", n.Family())
	}
	if n.Host() != "www.amazon.co.uk" {
		t.Errorf("host: got %q", n.Host())
	}
	if n.Path() != "/dp/B0ABCD1234" {
		t.Errorf("path: got %q", n.Path())
	}
	if got := n.Query().Get("ref"); got != "xyz" {
		t.Errorf("query ref: got %q", got)
	}
	if n.Raw() != "https://www.amazon.co.uk/dp/B0ABCD1234?ref=xyz&th=1" {
		t.Errorf("raw changed: %q", n.Raw())
	}
}

func TestFamilyForHost(t *testing.T) {
	tests := []struct {
		host string
		want Family
	}{
		{"www.amazon.com", FamilyAmazon},
		{"smile.amazon.de", FamilyAmazon},
		{"www.ebay.co.uk", FamilyEbay},
		{"www.ebay.com.au", FamilyEbay},
		{"shop.example.com", FamilyUnknown},
		// 域名里包含 amazon 字样但不是独立 label 的不算
		{"amazonfake.com", FamilyUnknown},
	}
	for _, tt := range tests {
		if got := FamilyForHost(tt.host); got != tt.want {
			t.Errorf("FamilyForHost(%q): got %v, want %v", tt.host, got, tt.want)
		}
	}
}
