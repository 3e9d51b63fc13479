package kraken

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const docSecret = "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="

func TestSigner_Sign(t *testing.T) {
	s, err := NewSigner(docSecret)
	require.NoError(t, err)

	got := s.Sign(
		"/0/private/AddOrder",
		"1616492376594",
		"nonce=1616492376594&ordertype=limit&pair=XBTUSD&price=37500&type=buy&volume=1.25",
	)
	assert.Equal(t, "4/dpxb3iT4tp/ZCVEwSnEsLxx0bqyhLpdfOpc6fn7OR8+UClSV5n9E6aSS8MPtnRfp32bAb0nmbRn6H8ndwLUQ==", got)
}

func TestSigner_NonceStrictlyIncreases(t *testing.T) {
	s, err := NewSigner(docSecret)
	require.NoError(t, err)
	fixed := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return fixed }

	prev := int64(0)
	for i := 0; i < 5; i++ {
		n, err := strconv.ParseInt(s.Nonce(), 10, 64)
		require.NoError(t, err)
		assert.Greater(t, n, prev)
		prev = n
	}
	assert.Equal(t, int64(1_700_000_000_004), prev)
}

func TestNewSigner_RejectsBadSecret(t *testing.T) {
	_, err := NewSigner("not base64!")
	assert.Error(t, err)
}
