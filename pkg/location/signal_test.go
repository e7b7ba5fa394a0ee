package location

import (
	"errors"
	"testing"
)

func TestSignal_Key(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		want string
	}{
		{"region lowercased", Region("SK"), "sk"},
		{"region mixed case", Region("Uk"), "uk"},
		{"region padded", Region(" sk "), "sk"},
		{"blank region", Region("  "), ""},
		{"coordinates full precision", Point(48.1486, 17.1077), "48.1486,17.1077"},
		{"coordinates not rounded", Point(48.148612345678, 17.107712345678), "48.148612345678,17.107712345678"},
		{"negative coordinates", Point(-33.8688, 151.2093), "-33.8688,151.2093"},
		{"integer coordinates", Point(50, 14), "50,14"},
		{"empty", Signal{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sig.Key(); got != tt.want {
				t.Fatalf("Key() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSignal_NearbyPointsDoNotShareKey(t *testing.T) {
	a := Point(48.1486, 17.1077)
	b := Point(48.14861, 17.1077)
	if a.Key() == b.Key() {
		t.Fatalf("expected distinct keys, both were %q", a.Key())
	}
}

func TestSignal_Validate(t *testing.T) {
	both := Point(1, 2)
	both.RegionCode = "sk"

	tests := []struct {
		name    string
		sig     Signal
		wantErr error
	}{
		{"region only", Region("sk"), nil},
		{"point only", Point(48.1, 17.1), nil},
		{"nothing", Signal{}, ErrNoLocation},
		{"blank region", Region(" "), ErrNoLocation},
		{"both", both, ErrAmbiguous},
		{"latitude out of range", Point(91, 0), ErrCoordinateBounds},
		{"longitude out of range", Point(0, -181), ErrCoordinateBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sig.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
		wantErr bool
	}{
		{"region code", "cz", "cz", false},
		{"region code upper", " DE ", "de", false},
		{"coordinates", "48.1486,17.1077", "48.1486,17.1077", false},
		{"coordinates with spaces", "48.1486, 17.1077", "48.1486,17.1077", false},
		{"bad latitude", "north,17.1", "", true},
		{"bad longitude", "48.1,east", "", true},
		{"out of range", "123,17.1", "", true},
		{"empty", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v; wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got.Key() != tt.wantKey {
				t.Errorf("Parse(%q).Key() = %q; want %q", tt.input, got.Key(), tt.wantKey)
			}
		})
	}
}
