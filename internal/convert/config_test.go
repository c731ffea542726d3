package convert

import (
	"errors"
	"testing"
	"time"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		present bool
		wantErr bool
	}{
		{"", 0, false, false},
		{"-1", 0, false, false},
		{"0", 0, true, false},
		{" 4 ", 4, true, false},
		{"A", 0, true, false},
		{"c", 2, true, false},
		{"AB", 27, true, false},
		{"-2", 0, false, true},
		{"A1", 0, false, true},
		{"ABCD", 0, false, true},
		{"XFD", 16383, true, false},
		{"xfe", 0, false, true},
		{"ZZZ", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			col, err := ParseColumn(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseColumn(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColumn(%q) returned error: %v", tt.in, err)
			}
			i, ok := col.Index()
			if ok != tt.present || (ok && i != tt.want) {
				t.Errorf("ParseColumn(%q) = %d, %v; want %d, %v", tt.in, i, ok, tt.want, tt.present)
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartCol = "A"
	cfg.EndCol = "1"
	cfg.DialogueCol = "C"
	cfg.Framerate = "25"
	cfg.Shift = "-0:00:01.50"
	cfg.Scale = "1.001"
	cfg.TopTracks = []string{" Signs ", ""}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options returned error: %v", err)
	}
	if !opts.HasHeader || !opts.Timestamp.Timecode {
		t.Error("expected header and timecode defaults to carry over")
	}
	if opts.Timestamp.Framerate != 25 {
		t.Errorf("framerate = %v, want 25", opts.Timestamp.Framerate)
	}
	if opts.Timestamp.Shift == nil || *opts.Timestamp.Shift != -1500*time.Millisecond {
		t.Errorf("shift = %v, want -1.5s", opts.Timestamp.Shift)
	}
	if opts.Timestamp.Scale != 1.001 {
		t.Errorf("scale = %v, want 1.001", opts.Timestamp.Scale)
	}
	if i, _ := opts.Columns.Dialogue.Index(); i != 2 {
		t.Errorf("dialogue column = %d, want 2", i)
	}
	if opts.Columns.Actor.IsSet() {
		t.Error("actor column should be absent")
	}
	if len(opts.TopTracks) != 1 || opts.TopTracks[0] != "Signs" {
		t.Errorf("top tracks = %v", opts.TopTracks)
	}
}

func TestConfigOptionsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DialogueCol = "0"

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options returned error: %v", err)
	}
	if opts.Timestamp.Framerate != 24 {
		t.Errorf("framerate = %v, want 24", opts.Timestamp.Framerate)
	}
	if opts.Timestamp.Shift != nil || opts.Timestamp.Scale != 0 {
		t.Error("shift and scale should be unset")
	}
}

func TestConfigOptionsErrors(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"no start or dialogue", func(c *Config) { c.DialogueCol = "" }, "columns"},
		{"bad column", func(c *Config) { c.ActorCol = "1A" }, "actor column"},
		{"zero framerate", func(c *Config) { c.Framerate = "0" }, "framerate"},
		{"text framerate", func(c *Config) { c.Framerate = "fast" }, "framerate"},
		{"bad shift", func(c *Config) { c.Shift = "5s" }, "shift"},
		{"negative scale", func(c *Config) { c.Scale = "-2" }, "scale"},
		{"nan scale", func(c *Config) { c.Scale = "NaN" }, "scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DialogueCol = "0"
			tt.edit(&cfg)

			_, err := cfg.Options()
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigurationError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}
