package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name  string
		found bool
	}{
		{name: "json", found: true},
		{name: "go-json", found: true},
		{name: "msgpack", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := ByName(tt.name)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.name, c.Name())
			}
		})
	}
}

func TestCodecsAgree(t *testing.T) {
	type payload struct {
		Quality  string  `json:"quality"`
		MaxScore float32 `json:"max_score"`
	}

	in := payload{Quality: "bias is a threat to fairness", MaxScore: 0.91}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Marshal(in)
			require.NoError(t, err)

			var out payload
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in, out)
		})
	}
}
