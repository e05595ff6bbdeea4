package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patchBody struct {
	Status  Int    `json:"status"`
	IsAdmin Bool   `json:"isAdmin"`
	Title   String `json:"title"`
}

func decode(t *testing.T, body string) patchBody {
	t.Helper()
	var out patchBody
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestValue_MissingKeyIsAbsent(t *testing.T) {
	body := decode(t, `{}`)

	assert.False(t, body.Status.Present())
	assert.False(t, body.IsAdmin.Present())
	assert.False(t, body.Title.Present())
}

func TestValue_NullIsAbsent(t *testing.T) {
	body := decode(t, `{"status": null, "isAdmin": null, "title": null}`)

	assert.False(t, body.Status.Present())
	assert.False(t, body.IsAdmin.Present())
	assert.False(t, body.Title.Present())
}

func TestValue_FalsyValuesArePresent(t *testing.T) {
	body := decode(t, `{"status": 0, "isAdmin": false, "title": ""}`)

	status, ok := body.Status.Get()
	require.True(t, ok)
	assert.Equal(t, int64(0), status)

	isAdmin, ok := body.IsAdmin.Get()
	require.True(t, ok)
	assert.False(t, isAdmin)

	title, ok := body.Title.Get()
	require.True(t, ok)
	assert.Equal(t, "", title)
}

func TestValue_StringFormsAreCoerced(t *testing.T) {
	body := decode(t, `{"status": "3", "isAdmin": "true", "title": "Plan"}`)

	assert.Equal(t, int64(3), body.Status.OrElse(-1))
	assert.True(t, body.IsAdmin.OrElse(false))
	assert.Equal(t, "Plan", body.Title.OrElse(""))
}

func TestValue_InvalidValuesKeepPresenceAndError(t *testing.T) {
	body := decode(t, `{"status": "abc", "isAdmin": 1, "title": {"x": 1}}`)

	assert.True(t, body.Status.Present())
	assert.ErrorIs(t, body.Status.Err(), ErrNotInteger)
	_, ok := body.Status.Get()
	assert.False(t, ok)

	assert.ErrorIs(t, body.IsAdmin.Err(), ErrNotBoolean)
	assert.ErrorIs(t, body.Title.Err(), ErrNotString)
}

func TestValue_FractionIsNotInteger(t *testing.T) {
	body := decode(t, `{"status": 1.5}`)

	assert.ErrorIs(t, body.Status.Err(), ErrNotInteger)
}

func TestParse(t *testing.T) {
	assert.False(t, Parse[int64]("").Present())
	assert.False(t, Parse[int64]("  ").Present())

	zero := Parse[int64]("0")
	v, ok := zero.Get()
	require.True(t, ok)
	assert.Equal(t, int64(0), v)

	bad := Parse[int64]("two")
	assert.True(t, bad.Present())
	assert.ErrorIs(t, bad.Err(), ErrNotInteger)
	assert.Equal(t, "two", bad.Raw())
}

func TestValue_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(patchBody{Status: Of[int64](2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status": 2, "isAdmin": null, "title": null}`, string(out))
}
