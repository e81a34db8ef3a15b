package raw

import "testing"

func TestConfGet(t *testing.T) {
	c := New().Prefix("LOG_")
	t.Setenv("LOG_LEVEL", "  info ")
	if got := c.Get("LEVEL", "debug"); got != "info" {
		t.Fatalf("Get = %q, want info", got)
	}
	if got := c.Get("MISSING", "debug"); got != "debug" {
		t.Fatalf("Get default = %q, want debug", got)
	}
}

func TestConfGetBool(t *testing.T) {
	c := New().Prefix("API_")
	t.Setenv("API_T1", "true")
	t.Setenv("API_T2", "1")
	t.Setenv("API_T3", "ON")
	t.Setenv("API_F1", "false")
	t.Setenv("API_F2", "nah")

	tests := []struct {
		name string
		key  string
		def  bool
		want bool
	}{
		{name: "true", key: "T1", want: true},
		{name: "1", key: "T2", want: true},
		{name: "ON", key: "T3", want: true},
		{name: "false", key: "F1", def: true, want: false},
		{name: "unknown is false", key: "F2", def: true, want: false},
		{name: "missing uses default", key: "MISSING", def: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.GetBool(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetBool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestConfGetInt(t *testing.T) {
	c := New().Prefix("SYS_")
	t.Setenv("SYS_OK", "42")
	t.Setenv("SYS_WS", "  7  ")
	t.Setenv("SYS_NONNUM", "12x")
	t.Setenv("SYS_NEG", "-5")

	tests := []struct {
		name string
		key  string
		def  int
		want int
	}{
		{name: "numeric", key: "OK", want: 42},
		{name: "trimmed", key: "WS", def: 1, want: 7},
		{name: "non numeric falls back", key: "NONNUM", def: 9, want: 9},
		{name: "negative falls back", key: "NEG", def: 3, want: 3},
		{name: "missing uses default", key: "MISSING", def: 11, want: 11},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.GetInt(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetInt(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

func TestPrefixComposition(t *testing.T) {
	api := New().Prefix("API_")
	apiLog := api.Prefix("LOG_")
	t.Setenv("API_LEVEL", "debug")
	t.Setenv("API_LOG_MODE", "console")
	if got := api.Get("LEVEL", ""); got != "debug" {
		t.Fatalf("API_ LEVEL = %q", got)
	}
	if got := apiLog.Get("MODE", ""); got != "console" {
		t.Fatalf("API_LOG_ MODE = %q", got)
	}
}
