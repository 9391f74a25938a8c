package crawler

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sjsage522/partsworker/pkg/errors"
)

func TestParsePrice(t *testing.T) {
	testCases := []struct {
		input    string
		expected *Price
	}{
		{"€ 1.234,56", NewPrice(123456)},
		{"€ 25,-", NewPrice(2500)},
		{"€ 95,00", NewPrice(9500)},
		{"€ 12,5", NewPrice(1250)},
		{"1234.56", NewPrice(123456)},
		{"€ 1.234", NewPrice(123400)},
		{"€ 0,00", NewPrice(0)},
		{"€ 149,95 incl. btw", NewPrice(14995)},
		{"Prijs op aanvraag", nil},
		{"prijs op aanvraag", nil},
		{"", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParsePrice(tc.input))
		})
	}

	assert.Equal(t, 1234.56, ParsePrice("€ 1.234,56").Float64())
}

func TestPriceFormatting(t *testing.T) {
	assert.Equal(t, "1234.56", Price(123456).String())
	assert.Equal(t, "25.00", Price(2500).String())
	assert.Equal(t, "0.05", Price(5).String())
	assert.Equal(t, "-1.50", Price(-150).String())

	data, err := json.Marshal(struct {
		Price *Price `json:"price"`
		None  *Price `json:"none"`
	}{Price: NewPrice(123456)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 1234.56, "none": null}`, string(data))

	var decoded Price
	require.NoError(t, json.Unmarshal([]byte("19.99"), &decoded))
	assert.Equal(t, Price(1999), decoded)
}

func TestParseLeadingInt(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
		ok       bool
	}{
		{"2005", 2005, true},
		{"123.456 km", 123456, true},
		{"150000 km", 150000, true},
		{"ca. 98.000", 98000, true},
		{"onbekend", 0, false},
		{"", 0, false},
	}

	for _, tc := range testCases {
		got := ParseLeadingInt(tc.input)
		if !tc.ok {
			assert.Nil(t, got, tc.input)
			continue
		}
		require.NotNil(t, got, tc.input)
		assert.Equal(t, tc.expected, *got, tc.input)
	}
}

func TestParseWarranty(t *testing.T) {
	got := ParseWarranty("€ 25,- Autodemontage Jansen Garantie 3 mnd")
	require.NotNil(t, got)
	assert.Equal(t, 3, *got)

	got = ParseWarranty("Garantie: 12 maanden")
	require.NotNil(t, got)
	assert.Equal(t, 12, *got)

	assert.Nil(t, ParseWarranty("Geen garantie"))
}

func TestMapCondition(t *testing.T) {
	testCases := []struct {
		input    string
		expected Condition
	}{
		{"gebruikt", ConditionUsed},
		{"Gebruikte koplamp rechts", ConditionUsed},
		{"nieuw", ConditionNew},
		{"Nieuwe startmotor", ConditionNew},
		{"gereviseerd", ConditionRefurbished},
		{"Revisie", ConditionRefurbished},
		{"outlet", ConditionUnknown},
		{"", ConditionUnknown},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, MapCondition(tc.input), tc.input)
	}
}

func TestNormalizePlate(t *testing.T) {
	for _, plate := range []string{"27-XH-VX", "27xhvx", "27XHVX", " 27 xh vx "} {
		normalized, err := NormalizePlate(plate)
		require.NoError(t, err, plate)
		assert.Equal(t, "27XHVX", normalized, plate)
	}

	_, err := NormalizePlate(" - ")
	assert.True(t, errors.IsValidation(err))

	_, err = NormalizePlate("27-XH-V!")
	assert.True(t, errors.IsValidation(err))
}

func TestPartSlug(t *testing.T) {
	assert.Equal(t, "koplamp", PartSlug("Koplamp"))
	assert.Equal(t, "koplamp-rechts", PartSlug("  Koplamp   rechts "))
	assert.Equal(t, "abs-pomp", PartSlug("ABS-pomp"))
	assert.Equal(t, "", PartSlug(" / "))
}

func TestQueryStems(t *testing.T) {
	assert.Equal(t, []string{"koplampen", "koplamp"}, queryStems("Koplampen"))
	assert.Equal(t, []string{"spiegels", "spiegel"}, queryStems("spiegels"))
	assert.Equal(t, []string{"motor"}, queryStems("Motor"))
	assert.Nil(t, queryStems("  "))
}

func TestAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://www.onderdelenlijn.nl/auto-onderdelen-voorraad/zoeken/kenteken/27xhvx/")
	require.NoError(t, err)

	got, ok := absoluteURL(base, "/onderdeel/1/koplamp/#fotos")
	assert.True(t, ok)
	assert.Equal(t, "https://www.onderdelenlijn.nl/onderdeel/1/koplamp/", got)

	got, ok = absoluteURL(base, "modeltype/12345/")
	assert.True(t, ok)
	assert.Equal(t, "https://www.onderdelenlijn.nl/auto-onderdelen-voorraad/zoeken/kenteken/27xhvx/modeltype/12345/", got)

	for _, href := range []string{"", "#", "javascript:void(0)", "mailto:info@example.com"} {
		_, ok = absoluteURL(base, href)
		assert.False(t, ok, href)
	}
}
