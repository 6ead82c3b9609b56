package schema_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/realm/schema"
)

func TestType_EncodeDecode(t *testing.T) {
	t.Parallel()

	typ := schema.MustFor[Frog]()
	species := "Rana temporaria"
	born := time.Date(2024, 3, 1, 12, 0, 0, 500, time.FixedZone("CET", 3600))

	frog := Frog{
		Name:    "Kermit",
		Age:     7,
		Species: &species,
		Weight:  0.25,
		Alive:   true,
		Born:    born,
		Photo:   []byte{1, 2, 3},
		Hidden:  "ignored",
	}

	values, err := typ.Encode(&frog)
	require.NoError(t, err)
	require.Len(t, values, 7)

	assert.Equal(t, "Kermit", values[0])
	assert.Equal(t, int64(7), values[1])
	assert.Equal(t, species, values[2])
	assert.Equal(t, 0.25, values[3])
	assert.Equal(t, true, values[4])
	assert.Equal(t, born.UTC(), values[5])
	assert.Equal(t, []byte{1, 2, 3}, values[6])

	var decoded Frog
	require.NoError(t, typ.Decode(values, &decoded))

	assert.Equal(t, "Kermit", decoded.Name)
	assert.Equal(t, 7, decoded.Age)
	require.NotNil(t, decoded.Species)
	assert.Equal(t, species, *decoded.Species)
	assert.True(t, born.Equal(decoded.Born))
	assert.Equal(t, []byte{1, 2, 3}, decoded.Photo)
	assert.Empty(t, decoded.Hidden)
}

func TestType_Encode_Nulls(t *testing.T) {
	t.Parallel()

	typ := schema.MustFor[Frog]()

	values, err := typ.Encode(Frog{Name: "Tad"})
	require.NoError(t, err)
	assert.Nil(t, values[2])
	assert.Nil(t, values[6])

	decoded := Frog{Photo: []byte{9}}
	require.NoError(t, typ.Decode(values, &decoded))
	assert.Nil(t, decoded.Species)
	assert.Nil(t, decoded.Photo)
}

func TestType_Encode_WrongType(t *testing.T) {
	t.Parallel()

	typ := schema.MustFor[Frog]()

	_, err := typ.Encode(HTTPServerLog{})
	assert.ErrorIs(t, err, schema.ErrInvalidType)

	_, err = typ.Encode((*Frog)(nil))
	assert.ErrorIs(t, err, schema.ErrInvalidType)

	handBuilt := schema.Type{Name: "X", Table: "class_x", Fields: typ.Fields}
	_, err = handBuilt.Encode(Frog{})
	assert.ErrorIs(t, err, schema.ErrInvalidType)
}

func TestType_Decode_Errors(t *testing.T) {
	t.Parallel()

	typ := schema.MustFor[Frog]()
	valid, err := typ.Encode(Frog{Name: "x"})
	require.NoError(t, err)

	var f Frog
	assert.Error(t, typ.Decode(valid, f), "non-pointer destination")
	assert.Error(t, typ.Decode(valid[:3], &f), "short value list")

	nullName := append([]any{}, valid...)
	nullName[0] = nil
	assert.Error(t, typ.Decode(nullName, &f), "null in non-nullable column")

	wrongKind := append([]any{}, valid...)
	wrongKind[1] = "seven"
	assert.Error(t, typ.Decode(wrongKind, &f), "string in int column")
}

func TestType_Decode_UintOverflow(t *testing.T) {
	t.Parallel()

	typ := schema.MustFor[HTTPServerLog]()

	var log HTTPServerLog
	require.NoError(t, typ.Decode([]any{"r1", int64(404)}, &log))
	assert.Equal(t, uint16(404), log.Code)

	assert.Error(t, typ.Decode([]any{"r1", int64(-1)}, &log))
	assert.Error(t, typ.Decode([]any{"r1", int64(70000)}, &log))
}

func TestField_Normalize(t *testing.T) {
	t.Parallel()

	typ := schema.MustFor[Frog]()
	age, _ := typ.Field("age")
	weight, _ := typ.Field("weight")
	species, _ := typ.Field("species")
	name, _ := typ.Field("name")

	v, err := age.Normalize(uint8(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = weight.Normalize(2)
	require.NoError(t, err)
	assert.Equal(t, float64(2), v)

	v, err = species.Normalize(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = name.Normalize(nil)
	assert.Error(t, err)

	_, err = age.Normalize("3")
	assert.Error(t, err)

	_, err = age.Normalize(uint64(1 << 63))
	assert.Error(t, err)
}
