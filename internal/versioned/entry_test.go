package versioned

import (
	"encoding/json"
	"testing"

	"asset-registry-api/internal/models"

	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, doc string) any {
	t.Helper()
	v, err := ParseValue([]byte(doc))
	require.NoError(t, err)
	return v
}

func TestEqual_ValueAndMarker(t *testing.T) {
	a := New(mustParse(t, `{"x": [1, "two", true, null]}`), "Wed, 21 Oct 2015 07:28:00 GMT")
	b := New(mustParse(t, `{"x": [1, "two", true, null]}`), "Wed, 21 Oct 2015 07:28:00 GMT")
	require.True(t, a.Equal(b))

	differentMarker := New(mustParse(t, `{"x": [1, "two", true, null]}`), "Thu, 22 Oct 2015 07:28:00 GMT")
	require.False(t, a.Equal(differentMarker))

	differentValue := New(mustParse(t, `{"x": [1, "two", false, null]}`), "Wed, 21 Oct 2015 07:28:00 GMT")
	require.False(t, a.Equal(differentValue))
}

func TestEqual_NumbersCompareByValue(t *testing.T) {
	parsed := New(mustParse(t, `{"n": 8, "f": 1.5}`), "")
	literal := New(map[string]any{"n": 8, "f": 1.5}, "")
	require.True(t, parsed.Equal(literal))

	require.False(t, New(mustParse(t, `{"n": 8}`), "").Equal(New(map[string]any{"n": "8"}, "")))
	require.False(t, New(mustParse(t, `12345678901234567891`), "").Equal(New(mustParse(t, `12345678901234567890`), "")))
}

func TestEqual_NullIsNotEmptyContainer(t *testing.T) {
	require.False(t, New(nil, "").Equal(New(map[string]any{}, "")))
	require.False(t, New(nil, "").Equal(New([]any{}, "")))
	require.False(t, New(map[string]any{}, "").Equal(New([]any{}, "")))
	require.True(t, New(map[string]any(nil), "").Equal(New(nil, "")))
}

func TestEqual_MapKeySets(t *testing.T) {
	a := New(map[string]any{"a": 1, "b": 2}, "")
	b := New(map[string]any{"a": 1, "c": 2}, "")
	require.False(t, a.Equal(b))
	require.True(t, New(map[string]string{"a": "x"}, "").Equal(New(map[string]any{"a": "x"}, "")))
}

func TestDefaultEntry(t *testing.T) {
	var e Entry
	require.True(t, e.IsZero())
	require.Empty(t, e.LastModified())
	require.True(t, e.Equal(New(nil, "")))
	require.False(t, New(map[string]any{}, "").IsZero())

	for _, n := range models.Networks() {
		hc := FromHardCoded(n, models.KindAssets)
		require.False(t, e.Equal(hc), n)
		require.False(t, hc.IsZero(), n)
	}
}

func TestFromHardCoded_EmptyMarkerAndDeterministic(t *testing.T) {
	for _, n := range models.Networks() {
		for _, k := range models.Kinds() {
			first := FromHardCoded(n, k)
			second := FromHardCoded(n, k)
			require.Empty(t, first.LastModified())
			require.True(t, first.Equal(second), "%s/%s", n, k)
		}
	}
}

func TestFromHardCoded_UnknownNetworkIsEmptyObject(t *testing.T) {
	e := FromHardCoded("signet", models.KindIcons)
	require.True(t, e.Equal(New(map[string]any{}, "")))
}

func TestFromHardCoded_LiquidIcons(t *testing.T) {
	icons, err := DeserializeInto[models.Icons](FromHardCoded(models.NetworkLiquid, models.KindIcons))
	require.NoError(t, err)
	require.Contains(t, icons, models.NetworkLiquid.PolicyAsset())
	require.NotEmpty(t, icons[models.NetworkLiquid.PolicyAsset()])
}

func TestJSON_RoundTrip(t *testing.T) {
	cases := []Entry{
		{},
		New(mustParse(t, `{}`), ""),
		New(mustParse(t, `{"a": {"b": [1, 2.5, 12345678901234567891]}, "c": null}`), "etag-123"),
		New(mustParse(t, `"scalar"`), "Wed, 21 Oct 2015 07:28:00 GMT"),
		New(map[string]any{"n": 3, "s": []string{"x", "y"}}, "m"),
		FromHardCoded(models.NetworkTestnetLiquid, models.KindAssets),
	}
	for _, original := range cases {
		data, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded Entry
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.True(t, original.Equal(decoded), string(data))
	}
}

func TestJSON_WireFormat(t *testing.T) {
	data, err := json.Marshal(New(map[string]any{"k": "v"}, "etag-1"))
	require.NoError(t, err)
	require.JSONEq(t, `{"value": {"k": "v"}, "last_modified": "etag-1"}`, string(data))
}

func TestParseValue_RejectsTrailingData(t *testing.T) {
	_, err := ParseValue([]byte(`{} {}`))
	require.Error(t, err)
	_, err = ParseValue([]byte(`{"a":`))
	require.Error(t, err)
}
