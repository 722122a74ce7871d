package objectstore

import "testing"

func TestConfigEnabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"empty", Config{}, false},
		{"no secret", Config{Bucket: "b", AccessKey: "k"}, false},
		{"no bucket", Config{AccessKey: "k", SecretKey: "s"}, false},
		{"complete", Config{Bucket: "b", AccessKey: "k", SecretKey: "s"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewClientEndpoint(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://localhost:9000", Bucket: "b", Region: "us-east-1", AccessKey: "k", SecretKey: "s"})
	opts := c.Options()
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("endpoint = %v, want http://localhost:9000", opts.BaseEndpoint)
	}
	if !opts.UsePathStyle {
		t.Error("expected path-style addressing")
	}
	if opts.Region != "us-east-1" {
		t.Errorf("region = %q, want us-east-1", opts.Region)
	}
}
