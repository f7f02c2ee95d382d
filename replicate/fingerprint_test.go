package replicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	base := Fingerprint(map[string]string{"A": "1", "B": "2"})
	assert.NotEmpty(t, base)

	t.Run("independent of insertion order", func(t *testing.T) {
		again := Fingerprint(map[string]string{"B": "2", "A": "1"})
		assert.Equal(t, base, again)
	})

	t.Run("value change produces a different hash", func(t *testing.T) {
		changed := Fingerprint(map[string]string{"A": "1", "B": "changed"})
		assert.NotEqual(t, base, changed)
	})

	t.Run("added pair produces a different hash", func(t *testing.T) {
		grown := Fingerprint(map[string]string{"A": "1", "B": "2", "C": "3"})
		assert.NotEqual(t, base, grown)
	})

	t.Run("name and value boundaries are unambiguous", func(t *testing.T) {
		a := Fingerprint(map[string]string{"AB": "C"})
		b := Fingerprint(map[string]string{"A": "BC"})
		assert.NotEqual(t, a, b)
	})

	t.Run("empty set yields empty fingerprint", func(t *testing.T) {
		assert.Empty(t, Fingerprint(nil))
		assert.Empty(t, Fingerprint(map[string]string{}))
	})
}
