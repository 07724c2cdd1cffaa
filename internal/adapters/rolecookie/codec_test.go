package rolecookie

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/testutil"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testSession() domainauth.Session {
	return domainauth.Session{
		ID:        "sess-1",
		UserID:    "u-1",
		Role:      domainauth.RoleCashier,
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlainCodec(t *testing.T) {
	var c PlainCodec
	v, err := c.Encode(domainauth.RoleAdmin, testSession())
	require.NoError(t, err)
	assert.Equal(t, "admin", v)

	_, err = c.Encode(domainauth.RoleUnknown, testSession())
	assert.ErrorIs(t, err, ErrUnencodableRole)

	for raw, want := range map[string]domainauth.Role{
		"admin":    domainauth.RoleAdmin,
		"cashier":  domainauth.RoleCashier,
		"customer": domainauth.RoleCustomer,
		"":         domainauth.RoleUnknown,
		"root":     domainauth.RoleUnknown,
	} {
		got, err := c.Decode(raw, "any")
		require.NoError(t, err)
		assert.Equal(t, want, got, "raw=%q", raw)
	}
}

func TestNewSignedCodec_ShortKey(t *testing.T) {
	_, err := NewSignedCodec([]byte("short"))
	assert.Error(t, err)
}

func TestSignedCodec_RoundTrip(t *testing.T) {
	c, err := NewSignedCodec(testKey)
	require.NoError(t, err)
	c.now = testutil.FixedTimeFunc(time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC))

	sess := testSession()
	v, err := c.Encode(domainauth.RoleCashier, sess)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(v, "."))

	role, err := c.Decode(v, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCashier, role)
}

func TestSignedCodec_Deterministic(t *testing.T) {
	c, err := NewSignedCodec(testKey)
	require.NoError(t, err)

	a, err := c.Encode(domainauth.RoleAdmin, testSession())
	require.NoError(t, err)
	c.now = func() time.Time { return time.Now().Add(time.Hour) }
	b, err := c.Encode(domainauth.RoleAdmin, testSession())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSignedCodec_OtherSessionIsUnknown(t *testing.T) {
	c, err := NewSignedCodec(testKey)
	require.NoError(t, err)
	c.now = testutil.FixedTimeFunc(time.Date(2029, 6, 1, 0, 0, 0, 0, time.UTC))

	v, err := c.Encode(domainauth.RoleAdmin, testSession())
	require.NoError(t, err)

	role, err := c.Decode(v, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUnknown, role)

	role, err = c.Decode(v, "")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUnknown, role)
}

func TestSignedCodec_ExpiredIsUnknown(t *testing.T) {
	c, err := NewSignedCodec(testKey)
	require.NoError(t, err)
	c.now = testutil.FixedTimeFunc(time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC))

	v, err := c.Encode(domainauth.RoleAdmin, testSession())
	require.NoError(t, err)
	role, err := c.Decode(v, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUnknown, role)
}

func TestSignedCodec_TamperedIsError(t *testing.T) {
	c, err := NewSignedCodec(testKey)
	require.NoError(t, err)
	other, err := NewSignedCodec([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	forged, err := other.Encode(domainauth.RoleAdmin, testSession())
	require.NoError(t, err)
	_, err = c.Decode(forged, "sess-1")
	assert.Error(t, err)

	_, err = c.Decode("admin", "sess-1")
	assert.Error(t, err, "a plain role name is not a valid signed cookie")

	role, err := c.Decode("", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleUnknown, role)
}

func TestSignedCodec_RejectsNoneAlgorithm(t *testing.T) {
	c, err := NewSignedCodec(testKey)
	require.NoError(t, err)

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, roleClaims{Role: "admin", SID: sessionHash("sess-1")})
	v, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.Decode(v, "sess-1")
	assert.Error(t, err)
}
