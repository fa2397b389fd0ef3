package signature

import (
	"crypto/rand"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBody(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestSign_KnownVector(t *testing.T) {
	// RFC 4231 test case 2
	got := Sign([]byte("what do ya want for nothing?"), "Jefe")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}

func TestVerify_AcceptsOwnSignature(t *testing.T) {
	for _, n := range []int{0, 1, 64, 1024, 64 * 1024} {
		t.Run(fmt.Sprintf("%d bytes", n), func(t *testing.T) {
			body := randomBody(t, n)
			secret := "s3cret"
			assert.True(t, Verify(body, Sign(body, secret), secret))
		})
	}
}

func TestVerify_RejectsSignatureOfOtherBody(t *testing.T) {
	secret := "s3cret"
	for i := 0; i < 200; i++ {
		a := randomBody(t, 32)
		b := randomBody(t, 32)
		if string(a) == string(b) {
			continue
		}
		assert.False(t, Verify(a, Sign(b, secret), secret))
	}
}

func TestVerify_RawBytesMatter(t *testing.T) {
	secret := "s3cret"
	compact := []byte(`{"_type":"post","_id":"p1"}`)
	spaced := []byte(`{ "_id": "p1", "_type": "post" }`)

	assert.True(t, Verify(spaced, Sign(spaced, secret), secret))
	assert.False(t, Verify(spaced, Sign(compact, secret), secret))
}

func TestVerify_NoSecretAlwaysPasses(t *testing.T) {
	for _, header := range []string{"", "garbage", "zz", Sign([]byte("x"), "other")} {
		assert.True(t, Verify([]byte("anything"), header, ""))
	}
}

func TestVerify_Rejects(t *testing.T) {
	body := []byte(`{"_type":"post"}`)
	secret := "s3cret"
	good := Sign(body, secret)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"whitespace header", "   "},
		{"not hex", "not-a-hex-signature"},
		{"odd length hex", good[:len(good)-1]},
		{"truncated", good[:32]},
		{"extended", good + "00"},
		{"wrong secret", Sign(body, "other")},
		{"flipped last nibble", good[:len(good)-1] + flip(good[len(good)-1])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, Verify(body, tt.header, secret))
		})
	}
}

func TestVerify_TolerantHeaderForms(t *testing.T) {
	body := []byte(`{"_type":"post"}`)
	secret := "s3cret"
	good := Sign(body, secret)

	assert.True(t, Verify(body, "  "+good+"\n", secret))
	assert.True(t, Verify(body, strings.ToUpper(good), secret))
}

func TestVerifier(t *testing.T) {
	body := []byte("payload")

	v := NewVerifier("k")
	assert.True(t, v.Enabled())
	assert.True(t, v.Verify(body, Sign(body, "k")))
	assert.False(t, v.Verify(body, ""))

	off := NewVerifier("")
	assert.False(t, off.Enabled())
	assert.True(t, off.Verify(body, ""))
}

// Comparison time should not depend on where the first mismatching byte sits.
func TestVerify_TimingIndependentOfMismatchPosition(t *testing.T) {
	if testing.Short() {
		t.Skip("timing sample skipped in short mode")
	}

	body := []byte(`{"_type":"socialMedia","_id":"abc"}`)
	secret := "s3cret"
	good := Sign(body, secret)

	early := flip(good[0]) + good[1:]
	late := good[:len(good)-1] + flip(good[len(good)-1])

	const samples = 3000
	measure := func(header string) time.Duration {
		d := make([]time.Duration, samples)
		for i := range d {
			start := time.Now()
			Verify(body, header, secret)
			d[i] = time.Since(start)
		}
		sort.Slice(d, func(i, j int) bool { return d[i] < d[j] })
		return d[samples/2]
	}

	// warm up
	measure(good)

	e, l := measure(early), measure(late)
	ratio := float64(e) / float64(l)
	if ratio < 1 {
		ratio = 1 / ratio
	}
	assert.Less(t, ratio, 3.0, "median early=%s late=%s", e, l)
}

func flip(c byte) string {
	if c == '0' {
		return "1"
	}
	return "0"
}
