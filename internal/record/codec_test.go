package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("six fields", func(t *testing.T) {
		f, ok := Decode("Rifle,A,B,10,100,50")
		require.True(t, ok)
		assert.Equal(t, Fields{
			Name:      "Rifle",
			Col2:      "A",
			Col3:      "B",
			Stock:     "10",
			BuyPrice:  "100",
			SellPrice: "50",
		}, f)
	})

	t.Run("extra fields are ignored", func(t *testing.T) {
		f, ok := Decode("Rifle,A,B,10,100,50,extra,more")
		require.True(t, ok)
		assert.Equal(t, "50", f.SellPrice)
	})

	t.Run("empty values still count", func(t *testing.T) {
		f, ok := Decode(",,,,,")
		require.True(t, ok)
		assert.Equal(t, Fields{}, f)
	})

	for _, s := range []string{"OnlyOneField", "", "a,b,c,d,e"} {
		t.Run("malformed "+s, func(t *testing.T) {
			_, ok := Decode(s)
			assert.False(t, ok)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{
		"Rifle,A,B,10,100,50",
		"Bread,A,B,5,2.50,1.00",
		"Thing,,,-1,-1,-1",
		" spaced , x , y ,1,2,3",
	} {
		f, ok := Decode(s)
		require.True(t, ok, s)
		assert.Equal(t, s, f.Encode())
	}
}

func TestRoundTripDropsExtraFields(t *testing.T) {
	s := "Rifle,A,B,10,100,50,extra"
	f, ok := Decode(s)
	require.True(t, ok)

	assert.Equal(t, "Rifle,A,B,10,100,50", f.Encode())
	assert.Equal(t, 1, ExtraFields(s))
	assert.Equal(t, 0, ExtraFields("Rifle,A,B,10,100,50"))
	assert.Equal(t, 0, ExtraFields("OnlyOneField"))
}

func TestFromValues(t *testing.T) {
	f, err := FromValues([]string{"a", "b", "c", "d", "e", "f"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, f.Values())

	_, err = FromValues([]string{"a"})
	assert.Error(t, err)
}

func TestHasSeparator(t *testing.T) {
	assert.True(t, HasSeparator("a,b"))
	assert.False(t, HasSeparator("ab"))
}

func TestSeparatorColumns(t *testing.T) {
	f := Fields{Name: "Rifle, long", Col2: "A", Col3: "B", Stock: "1", BuyPrice: "1", SellPrice: "2,5"}
	assert.Equal(t, []string{"name", "sell_price"}, f.SeparatorColumns())
	assert.Empty(t, Fields{Name: "Rifle"}.SeparatorColumns())
}

func str(s string) *string { return &s }

func TestMerge(t *testing.T) {
	f, err := Merge("Rifle,A,B,10,100,50", [FieldCount]*string{3: str("5"), 5: str("")})
	require.NoError(t, err)
	assert.Equal(t, "Rifle,A,B,5,100,", f.Encode())

	f, err = Merge("Rifle,A,B,10,100,50,extra", [FieldCount]*string{})
	require.NoError(t, err)
	assert.Equal(t, "Rifle,A,B,10,100,50", f.Encode())
}

func TestMergeMalformed(t *testing.T) {
	_, err := Merge("OnlyOneField", [FieldCount]*string{3: str("5")})
	assert.ErrorIs(t, err, ErrNotEditable)

	_, err = Merge("OnlyOneField", [FieldCount]*string{})
	assert.ErrorIs(t, err, ErrNotEditable)

	all := [FieldCount]*string{str("Knife"), str("A"), str("B"), str("1"), str("20"), str("10")}
	f, err := Merge("OnlyOneField", all)
	require.NoError(t, err)
	assert.Equal(t, "Knife,A,B,1,20,10", f.Encode())
}
