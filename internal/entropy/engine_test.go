package entropy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leakguard/leakguard/internal/types"
)

const randomToken = "Zx8Qm2Lp9Rt4Vw7Yk3Hn6Bj1Fc5Gd0Se8Ua2Xo4P"

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultOptions())
	require.NoError(t, err)
	return e
}

func TestShannon(t *testing.T) {
	assert.Equal(t, 0.0, Shannon(""))
	assert.Equal(t, 0.0, Shannon("aaaa"))
	assert.InDelta(t, 1.0, Shannon("aabb"), 1e-9)
	assert.InDelta(t, 2.0, Shannon("abcd"), 1e-9)
	assert.Greater(t, Shannon(randomToken), 5.0)
}

func TestSecretKeyAssignment(t *testing.T) {
	src := "package cfg\n\napiSecret = \"" + randomToken + "\"\n"
	fs := mustEngine(t).Detect(src, "cfg.go")
	require.Len(t, fs, 1)
	f := fs[0]
	assert.Equal(t, types.TypeEntropy, f.Type)
	assert.Equal(t, Category, f.Category)
	assert.Equal(t, string(KindAssignment), f.ContextKind)
	assert.Equal(t, randomToken, f.Match)
	assert.Equal(t, 3, f.LineNumber)
	assert.Equal(t, strings.Index(src[strings.LastIndex(src, "apiSecret"):], randomToken), f.ColumnStart)

	quoted := mustEngine(t).Detect(`call("`+randomToken+`")`, "x.go")
	require.Len(t, quoted, 1)
	assert.Equal(t, string(KindQuoted), quoted[0].ContextKind)
	assert.Greater(t, f.Confidence, quoted[0].Confidence)
	assert.InDelta(t, quoted[0].Confidence+0.05+keyBoost, f.Confidence, 1e-9)
}

func TestEnvironmentAssignment(t *testing.T) {
	fs := mustEngine(t).Detect("export API_TOKEN="+randomToken+"\n", ".envrc")
	require.Len(t, fs, 1)
	assert.Equal(t, string(KindEnvironment), fs[0].ContextKind)
	assert.Equal(t, 17, fs[0].ColumnStart)
	assert.Equal(t, 17+len(randomToken), fs[0].ColumnEnd)
}

func TestBase64Run(t *testing.T) {
	blob := "dGhpcyBpcyBhIHNlY3JldCB2YWx1ZSE9PQ=="
	fs := mustEngine(t).Detect("blob: "+blob, "data.yml")
	require.Len(t, fs, 1)
	assert.Equal(t, string(KindBase64), fs[0].ContextKind)
	assert.Equal(t, blob, fs[0].Match)
}

func TestLooksBase64(t *testing.T) {
	assert.True(t, looksBase64("dGhpcyBpcyBhIHNlY3JldCB2YWx1ZSE9PQ=="))
	assert.False(t, looksBase64("dGhpcyBpcyBhIHNlY3JldCB2YWx1ZSE9P=="), "bad padding length")
	assert.False(t, looksBase64("ABCDEFGHIJKLMNOPQRSTUVWX"), "single case")
	assert.False(t, looksBase64("a/b/c/d/e/f/g/h/i/j/k/L/m/n"), "mostly separators")
}

func TestConfidenceRises(t *testing.T) {
	e := mustEngine(t)
	prev := -1.0
	for _, h := range []float64{4.0, 4.5, 5.0, 6.0, 7.0} {
		c := e.Confidence(h, KindGeneric, false)
		assert.GreaterOrEqual(t, c, prev)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
		prev = c
	}
	assert.Equal(t, 1.0, e.Confidence(8, KindEnvironment, true))
}

func TestExclusions(t *testing.T) {
	for _, v := range []string{
		"   ",
		"12345678901234567890",
		"abcdefghijklmnopqrstuvwxyz",
		"your_Zx8Qm2Lp9Rt4Vw7Yk3Hn6",
		"<insert-token-here-1234567>",
		"${SECRET_FROM_ENVIRONMENT_1}",
		"da39a3ee5e6b4b0d3255bfef95601890afd80709",
		"http://localhost:8080/callback?x=Zx8Qm2",
		"https://api.example.com/v1/Zx8Qm2Lp9Rt",
		"/usr/local/lib/python3/site-packages",
		"internal/engine/testdata/fixture.txt",
	} {
		assert.True(t, excluded(v), v)
	}
	assert.False(t, excluded(randomToken))

	assert.Empty(t, mustEngine(t).Detect("API_KEY=your_Zx8Qm2Lp9Rt4Vw7Yk3Hn6Bj1Fc5", ".env"))
}

func TestLengthWindowAndThreshold(t *testing.T) {
	long := strings.Repeat(randomToken, 3)
	assert.Empty(t, mustEngine(t).Detect(`v = "`+long+`"`, "f"))

	opts := DefaultOptions()
	opts.Threshold = 7.5
	e, err := New(opts)
	require.NoError(t, err)
	assert.Empty(t, e.Detect(`apiSecret = "`+randomToken+`"`, "f"))

	opts = DefaultOptions()
	opts.Charsets.RequireDigit = true
	e, err = New(opts)
	require.NoError(t, err)
	assert.Empty(t, e.Detect(`apiSecret = "ZxQmLpRtVwYkHnBjFcGdSeUaXoPqWeRtYu"`, "f"))
}

const mixedContent = `export API_TOKEN=Zx8Qm2Lp9Rt4Vw7Yk3Hn6Bj1Fc5
db_password = "qW3rTy9UiOp2"
short_key = 'aB3dE6gH'
const sessionSecret = "Kp4Ls8Nm2Qx6Rz0Tv5Wy9"
blob: U2VjcmV0U3RyaW5nV2l0aE1peGVkQ2FzZTEyMzQ=
id = a9F3kL0pQ7zX2cV5bN8m
plain words that are not secrets at all
path = ./internal/engine/engine_test.go
`

func countWith(t *testing.T, o Options) int {
	t.Helper()
	e, err := New(o)
	require.NoError(t, err)
	return len(e.Detect(mixedContent, "mixed.txt"))
}

func TestLowerMinLengthNeverLosesFindings(t *testing.T) {
	prev := -1
	for min := 20; min >= 1; min-- {
		o := DefaultOptions()
		o.MinLength = min
		n := countWith(t, o)
		assert.GreaterOrEqual(t, n, prev, "min_length=%d", min)
		prev = n
	}
	assert.Greater(t, prev, 0)
}

func TestHigherThresholdNeverAddsFindings(t *testing.T) {
	prev := -1
	for th := 3.0; th <= 7.5; th += 0.5 {
		o := DefaultOptions()
		o.Threshold = th
		n := countWith(t, o)
		if prev >= 0 {
			assert.LessOrEqual(t, n, prev, "threshold=%.1f", th)
		}
		prev = n
	}
	assert.Equal(t, 0, prev)
}

func TestDeterministic(t *testing.T) {
	src := "A_TOKEN=" + randomToken + "\nx = '" + randomToken[5:] + "q9Z'\n"
	e := mustEngine(t)
	first := e.Detect(src, "f")
	require.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Detect(src, "f"))
	}
}

func TestInvalidOptions(t *testing.T) {
	bad := []Options{
		{Threshold: 0, MinLength: 20, MaxLength: 100},
		{Threshold: 8, MinLength: 20, MaxLength: 100},
		{Threshold: 4, MinLength: 0, MaxLength: 100},
		{Threshold: 4, MinLength: 50, MaxLength: 20},
		{Threshold: 4, MinLength: 20, MaxLength: 100, Charsets: Charsets{MinAlnumRatio: 1.5}},
	}
	for _, o := range bad {
		_, err := New(o)
		assert.Error(t, err, "%+v", o)
	}
}
