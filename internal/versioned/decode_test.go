package versioned

import (
	"encoding/json"
	"errors"
	"testing"

	"asset-registry-api/internal/models"

	"github.com/stretchr/testify/require"
)

type assetMap struct {
	Assets map[string]models.AssetEntry `json:"assets" validate:"required"`
}

const lbtc = "6f0279e9ed041c3d710a9f57d0c02928416460c4b722ae3457a11eec381c526d"

// assetDoc returns a one-asset registry document with every field present.
// edit may change or remove fields before the document is parsed.
func assetDoc(t *testing.T, edit func(entry map[string]any)) any {
	t.Helper()
	entry := map[string]any{
		"asset_id":      lbtc,
		"contract":      nil,
		"entity":        map[string]any{"domain": ""},
		"issuance_txin": map[string]any{"txid": "00", "vin": 0},
		"issuer_pubkey": "",
		"name":          "x",
		"precision":     8,
		"ticker":        nil,
		"version":       0,
	}
	if edit != nil {
		edit(entry)
	}
	data, err := json.Marshal(map[string]any{lbtc: entry})
	require.NoError(t, err)
	return mustParse(t, string(data))
}

func requireDeserializationError(t *testing.T, err error) *DeserializationError {
	t.Helper()
	require.Error(t, err)
	var de *DeserializationError
	require.True(t, errors.As(err, &de), "unexpected error type %T", err)
	return de
}

func TestDeserializeInto_EmptyAssetMap(t *testing.T) {
	got, err := DeserializeInto[assetMap](New(mustParse(t, `{"assets": {}}`), "etag-123"))
	require.NoError(t, err)
	require.NotNil(t, got.Assets)
	require.Empty(t, got.Assets)
}

func TestDeserializeInto_AssetsNotAMap(t *testing.T) {
	got, err := DeserializeInto[assetMap](New(mustParse(t, `{"assets": "not-a-map"}`), "etag-123"))
	de := requireDeserializationError(t, err)
	require.Equal(t, "object", de.Expected)
	require.Equal(t, "string", de.Actual)
	require.Contains(t, de.Target, "assetMap")
	require.Nil(t, got.Assets)
}

func TestDeserializeInto_MissingRequiredField(t *testing.T) {
	_, err := DeserializeInto[assetMap](New(mustParse(t, `{}`), ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, "assets", de.Path)
	require.Equal(t, "required", de.Expected)
	require.Equal(t, "missing", de.Actual)
}

func TestDeserializeInto_WrongScalarKind(t *testing.T) {
	doc := assetDoc(t, func(e map[string]any) { e["precision"] = "eight" })
	_, err := DeserializeInto[models.Assets](New(doc, ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, lbtc+".precision", de.Path)
	require.Equal(t, "number", de.Expected)
	require.Equal(t, "string", de.Actual)
}

func TestDeserializeInto_NumberWhereStringExpected(t *testing.T) {
	_, err := DeserializeInto[models.Icons](New(mustParse(t, `{"abc": 12}`), ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, "string", de.Expected)
	require.Equal(t, "number", de.Actual)
}

func TestDeserializeInto_NestedRequiredInsideMap(t *testing.T) {
	doc := assetDoc(t, func(e map[string]any) { e["name"] = "" })
	_, err := DeserializeInto[models.Assets](New(doc, ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, lbtc+".name", de.Path)
	require.Equal(t, "required", de.Expected)
}

func TestDeserializeInto_MissingField(t *testing.T) {
	doc := assetDoc(t, func(e map[string]any) { delete(e, "precision") })
	got, err := DeserializeInto[models.Assets](New(doc, ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, lbtc+".precision", de.Path)
	require.Equal(t, "required", de.Expected)
	require.Equal(t, "missing", de.Actual)
	require.Nil(t, got)

	doc = assetDoc(t, func(e map[string]any) { e["issuance_txin"] = map[string]any{"txid": "00"} })
	_, err = DeserializeInto[models.Assets](New(doc, ""))
	de = requireDeserializationError(t, err)
	require.Equal(t, lbtc+".issuance_txin.vin", de.Path)
}

func TestDeserializeInto_OptionalPointerMayBeAbsent(t *testing.T) {
	doc := assetDoc(t, func(e map[string]any) { delete(e, "ticker") })
	assets, err := DeserializeInto[models.Assets](New(doc, ""))
	require.NoError(t, err)
	require.Nil(t, assets[lbtc].Ticker)
}

func TestDeserializeInto_ValidationBounds(t *testing.T) {
	doc := assetDoc(t, func(e map[string]any) { e["precision"] = 9 })
	_, err := DeserializeInto[models.Assets](New(doc, ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, lbtc+".precision", de.Path)
	require.Equal(t, "lte=8", de.Expected)
}

func TestDeserializeInto_NumberOutOfRange(t *testing.T) {
	cases := []struct {
		field    string
		edit     func(map[string]any)
		expected string
	}{
		{"precision", func(e map[string]any) { e["precision"] = 264 }, "number(uint8)"},
		{"precision", func(e map[string]any) { e["precision"] = -1 }, "number(uint8)"},
		{"precision", func(e map[string]any) { e["precision"] = 2.5 }, "number(uint8)"},
		{"issuance_txin.vin", func(e map[string]any) {
			e["issuance_txin"] = map[string]any{"txid": "00", "vin": int64(4294967297)}
		}, "number(uint32)"},
	}
	for _, tc := range cases {
		got, err := DeserializeInto[models.Assets](New(assetDoc(t, tc.edit), ""))
		de := requireDeserializationError(t, err)
		require.Equal(t, lbtc+"."+tc.field, de.Path)
		require.Equal(t, tc.expected, de.Expected)
		require.Equal(t, "number", de.Actual)
		require.Nil(t, got)
	}
}

func TestDeserializeInto_NullWhereValueExpected(t *testing.T) {
	icons, err := DeserializeInto[models.Icons](New(mustParse(t, `{"abc": null}`), ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, "abc", de.Path)
	require.Equal(t, "string", de.Expected)
	require.Equal(t, "null", de.Actual)
	require.Nil(t, icons)

	_, err = DeserializeInto[models.Assets](New(assetDoc(t, func(e map[string]any) { e["precision"] = nil }), ""))
	de = requireDeserializationError(t, err)
	require.Equal(t, lbtc+".precision", de.Path)
	require.Equal(t, "null", de.Actual)

	_, err = DeserializeInto[models.Assets](New(assetDoc(t, func(e map[string]any) { e["entity"] = nil }), ""))
	de = requireDeserializationError(t, err)
	require.Equal(t, lbtc+".entity", de.Path)
	require.Equal(t, "object", de.Expected)

	_, err = DeserializeInto[models.Assets](New(mustParse(t, `{"abc": null}`), ""))
	de = requireDeserializationError(t, err)
	require.Equal(t, "abc", de.Path)
}

func TestDeserializeInto_NullAllowedForNullableFields(t *testing.T) {
	// contract is a map and ticker a pointer, both may be null
	assets, err := DeserializeInto[models.Assets](New(assetDoc(t, nil), ""))
	require.NoError(t, err)
	require.Nil(t, assets[lbtc].Contract)
	require.Nil(t, assets[lbtc].Ticker)
}

func TestDottedPath(t *testing.T) {
	require.Equal(t, "abc.precision", dottedPath("[abc].precision"))
	require.Equal(t, "assets.abc.issuance_txin.vin", dottedPath("assets[abc].issuance_txin.vin"))
	require.Equal(t, "items[0].name", dottedPath("items[0].name"))
	require.Equal(t, "name", dottedPath("name"))
}

func TestDeserializeInto_NullDocument(t *testing.T) {
	_, err := DeserializeInto[assetMap](Entry{})
	de := requireDeserializationError(t, err)
	require.Equal(t, "object", de.Expected)
	require.Equal(t, "null", de.Actual)

	ptr, err := DeserializeInto[*assetMap](Entry{})
	require.NoError(t, err)
	require.Nil(t, ptr)
}

func TestDeserializeInto_ArrayWhereObjectExpected(t *testing.T) {
	_, err := DeserializeInto[models.Assets](New(mustParse(t, `[1, 2]`), ""))
	de := requireDeserializationError(t, err)
	require.Equal(t, "object", de.Expected)
	require.Equal(t, "array", de.Actual)
}

func TestDeserializeInto_PopulatesAllFields(t *testing.T) {
	doc := assetDoc(t, func(e map[string]any) {
		e["contract"] = map[string]any{"entity": map[string]any{"domain": "blockstream.com"}, "version": 0}
		e["entity"] = map[string]any{"domain": "blockstream.com"}
		e["issuance_txin"] = map[string]any{"txid": "aa", "vin": 2}
		e["issuer_pubkey"] = "02ff"
		e["name"] = "Liquid Bitcoin"
		e["ticker"] = "L-BTC"
		e["version"] = 1
	})

	assets, err := DeserializeInto[models.Assets](New(doc, "etag"))
	require.NoError(t, err)
	require.Len(t, assets, 1)

	a := assets[lbtc]
	require.Equal(t, lbtc, a.AssetID)
	require.Equal(t, "Liquid Bitcoin", a.Name)
	require.Equal(t, uint8(8), a.Precision)
	require.NotNil(t, a.Ticker)
	require.Equal(t, "L-BTC", *a.Ticker)
	require.Equal(t, "blockstream.com", a.Entity.Domain)
	require.Equal(t, "aa", a.IssuanceTxin.Txid)
	require.Equal(t, uint32(2), a.IssuanceTxin.Vin)
	require.Equal(t, "02ff", a.IssuerPubkey)
	require.Equal(t, uint8(1), a.Version)
	require.Contains(t, a.Contract, "entity")
}

func TestDeserializeInto_HardCodedAssets(t *testing.T) {
	for _, n := range models.Networks() {
		assets, err := DeserializeInto[models.Assets](FromHardCoded(n, models.KindAssets))
		require.NoError(t, err, n)
		policy, ok := assets[n.PolicyAsset()]
		require.True(t, ok, n)
		require.Equal(t, uint8(8), policy.Precision)
		require.NotNil(t, policy.Ticker)
	}
}

func TestDeserializationError_Message(t *testing.T) {
	err := &DeserializationError{Target: "models.Assets", Path: "x.name", Expected: "required", Actual: "missing"}
	require.Equal(t, "cannot deserialize registry value into models.Assets at x.name: expected required, got missing", err.Error())

	inner := errors.New("boom")
	wrapped := &DeserializationError{Target: "T", Err: inner}
	require.ErrorIs(t, wrapped, inner)
}
