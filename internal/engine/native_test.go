//go:build linux || darwin

package engine

import (
	"testing"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []uint32
		wantErr bool
	}{
		{name: "empty", in: "", want: []uint32{}},
		{name: "single", in: "101", want: []uint32{101}},
		{name: "sequence", in: "101,2003,2088", want: []uint32{101, 2003, 2088}},
		{name: "zero id", in: "0,5", want: []uint32{0, 5}},
		{name: "trailing comma", in: "101,", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "non-numeric", in: "101,abc", wantErr: true},
		{name: "overflow", in: "4294967296", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDs(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseIDs(%q) succeeded, want error", tt.in)
				}

				return
			}

			if err != nil {
				t.Fatalf("parseIDs(%q): %v", tt.in, err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("parseIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("id[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOpenNativeMissingLibrary(t *testing.T) {
	_, err := OpenNative("/nonexistent/libtokenizers.so", "tokenizer.json")
	if err == nil {
		t.Fatal("OpenNative succeeded for a missing library")
	}
}

func TestOpenNativeEmptyArguments(t *testing.T) {
	if _, err := OpenNative("", "tokenizer.json"); err == nil {
		t.Error("OpenNative with empty library path succeeded")
	}

	if _, err := OpenNative("libtokenizers.so", ""); err == nil {
		t.Error("OpenNative with empty model path succeeded")
	}
}
