package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/symbiotic-sonnet/internal/domain"
)

func TestLineRecordUnmarshalInfersKind(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.VisualsKind
	}{
		{
			name: "flat",
			body: `{"line":"a","visuals":{"bgColor":"#000","circleColor":"#fff","size":100,"speed":3}}`,
			want: domain.VisualsFlat,
		},
		{
			name: "scene",
			body: `{"line":"a","sceneBgColor":"#000","visuals":[{"shape":"box","position":[0,0,0],"shapeColor":"#fff","wireframe":false}]}`,
			want: domain.VisualsScene,
		},
		{
			name: "physics",
			body: `{"line":"a","sceneBgColor":"#000","visuals":[{"shape":"box","position":[0,0,0],"shapeColor":"#fff","wireframe":false,"mass":2}]}`,
			want: domain.VisualsPhysics,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec domain.LineRecord
			require.NoError(t, json.Unmarshal([]byte(tt.body), &rec))
			assert.Equal(t, tt.want, rec.Kind)
			assert.Equal(t, "a", rec.Line)
		})
	}
}

func TestLineRecordUnmarshalRejectsMissingVisuals(t *testing.T) {
	var rec domain.LineRecord
	err := json.Unmarshal([]byte(`{"line":"a"}`), &rec)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestNormalizeClampsPhysicsShapes(t *testing.T) {
	body := `{"line":"  waves fold  ","sceneBgColor":"blue","visuals":[
		{"shape":"torusKnot","position":[9,-7,-12],"shapeColor":"#abc","wireframe":true,"mass":40,"restitution":0.1,"initialImpulse":[50,-50,3]},
		{"shape":"pyramid","position":[0,0,0],"shapeColor":"#fff"},
		{"shape":"sphere","position":[1,1,1],"shapeColor":"red"}
	]}`

	rec, err := domain.DecodeLineRecord([]byte(body), domain.VisualsPhysics)
	require.NoError(t, err)

	norm, err := rec.Normalize()
	require.NoError(t, err)

	assert.Equal(t, "waves fold", norm.Line)
	assert.Equal(t, domain.DefaultBackground, norm.Scene.SceneBgColor)
	require.Len(t, norm.Scene.Shapes, 2, "unknown shape should be dropped")

	first := norm.Scene.Shapes[0]
	assert.Equal(t, domain.Vec3{5, -2, -5}, first.Position)
	assert.Equal(t, "#abc", first.ShapeColor)
	assert.Equal(t, 5.0, *first.Mass)
	assert.Equal(t, 0.5, *first.Restitution)
	assert.Equal(t, domain.Vec3{10, -10, 3}, *first.InitialImpulse)

	second := norm.Scene.Shapes[1]
	assert.Equal(t, domain.DefaultForeground, second.ShapeColor)
	require.NotNil(t, second.Mass)
	assert.Equal(t, 1.0, *second.Mass)
	assert.Equal(t, domain.Vec3{}, *second.InitialImpulse)

	// the decoded record is left untouched
	assert.Equal(t, 40.0, *rec.Scene.Shapes[0].Mass)
}

func TestNormalizeTruncatesAndStripsPhysicsForScene(t *testing.T) {
	shapes := make([]domain.Shape, 9)
	for i := range shapes {
		m := 3.0
		shapes[i] = domain.Shape{Shape: domain.ShapeBox, ShapeColor: "#123456", Mass: &m}
	}
	rec := domain.LineRecord{
		Line:  "x",
		Kind:  domain.VisualsScene,
		Scene: &domain.SceneVisuals{SceneBgColor: "#000000", Shapes: shapes},
	}

	norm, err := rec.Normalize()
	require.NoError(t, err)

	_, max := domain.VisualsScene.ShapeCount()
	assert.Len(t, norm.Scene.Shapes, max)
	for _, s := range norm.Scene.Shapes {
		assert.Nil(t, s.Mass)
	}
}

func TestNormalizeRejectsEmptyRecords(t *testing.T) {
	_, err := domain.LineRecord{Kind: domain.VisualsFlat, Flat: &domain.FlatVisuals{}}.Normalize()
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	_, err = domain.LineRecord{
		Line:  "x",
		Kind:  domain.VisualsPhysics,
		Scene: &domain.SceneVisuals{Shapes: []domain.Shape{{Shape: "blob"}}},
	}.Normalize()
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestNormalizeFlatDefaults(t *testing.T) {
	rec := domain.LineRecord{
		Line: "x",
		Kind: domain.VisualsFlat,
		Flat: &domain.FlatVisuals{BgColor: "#0a0a0a", CircleColor: "nope", Size: 9000},
	}

	norm, err := rec.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "#0a0a0a", norm.Flat.BgColor)
	assert.Equal(t, domain.DefaultForeground, norm.Flat.CircleColor)
	assert.Equal(t, domain.CircleSizeRange.Max, norm.Flat.Size)
	assert.Equal(t, 4.0, norm.Flat.Speed)
}

func TestFallbackIsStable(t *testing.T) {
	for _, kind := range []domain.VisualsKind{domain.VisualsFlat, domain.VisualsScene, domain.VisualsPhysics} {
		a, err := json.Marshal(domain.Fallback(kind))
		require.NoError(t, err)
		b, err := json.Marshal(domain.Fallback(kind))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))

		var back domain.LineRecord
		require.NoError(t, json.Unmarshal(a, &back))
		assert.Equal(t, kind, back.Kind)
		assert.Equal(t, domain.FallbackLine, back.Line)

		_, err = back.Normalize()
		assert.NoError(t, err, "fallback must satisfy its own schema")
	}
}

func TestFallbackValuesAreIndependent(t *testing.T) {
	a := domain.Fallback(domain.VisualsPhysics)
	*a.Scene.Shapes[0].Mass = 99

	b := domain.Fallback(domain.VisualsPhysics)
	assert.Equal(t, 1.0, *b.Scene.Shapes[0].Mass)
}

func TestParseVisualsKind(t *testing.T) {
	k, err := domain.ParseVisualsKind(" Scene ")
	require.NoError(t, err)
	assert.Equal(t, domain.VisualsScene, k)

	k, err = domain.ParseVisualsKind("")
	require.NoError(t, err)
	assert.Equal(t, domain.VisualsPhysics, k)

	_, err = domain.ParseVisualsKind("voxels")
	assert.Error(t, err)
}
