package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		arg  string
		want Location
	}{
		{"/abs/path", Location{Path: "/abs/path"}},
		{"relative/dir", Location{Path: "relative/dir"}},
		{"./host:path", Location{Path: "./host:path"}},
		{"C:/Users/x", Location{Path: "C:/Users/x"}},
		{"server:/srv/data", Location{Host: "server", Path: "/srv/data"}},
		{"alice@server:data", Location{Host: "server", User: "alice", Path: "data"}},
		{"server:", Location{Host: "server", Path: "."}},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got := ParseLocation(tt.arg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Host != "", got.IsRemote())
		})
	}

	assert.Equal(t, "alice@server:data", ParseLocation("alice@server:data").String())
	assert.Equal(t, "/abs/path", ParseLocation("/abs/path").String())
}
