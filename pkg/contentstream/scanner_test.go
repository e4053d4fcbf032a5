package contentstream

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerTokens(t *testing.T) {
	lexer := NewLexer(strings.NewReader(`q 1 0 0 1 -2.5 .5 cm /F1 12 Tf (a\)b\101) Tj <414 2> [1 (x)] TJ % note
Q`))

	var got []Token
	for {
		tok, err := lexer.NextToken()
		require.NoError(t, err)
		if tok.Type == TokenEOF {
			break
		}
		got = append(got, tok)
	}

	want := []Token{
		{Type: TokenOperator, Text: "q"},
		{Type: TokenNumber, Num: 1},
		{Type: TokenNumber, Num: 0},
		{Type: TokenNumber, Num: 0},
		{Type: TokenNumber, Num: 1},
		{Type: TokenNumber, Num: -2.5},
		{Type: TokenNumber, Num: 0.5},
		{Type: TokenOperator, Text: "cm"},
		{Type: TokenName, Text: "F1"},
		{Type: TokenNumber, Num: 12},
		{Type: TokenOperator, Text: "Tf"},
		{Type: TokenString, Text: "a)bA"},
		{Type: TokenOperator, Text: "Tj"},
		{Type: TokenString, Text: "AB"},
		{Type: TokenArrayStart},
		{Type: TokenNumber, Num: 1},
		{Type: TokenString, Text: "x"},
		{Type: TokenArrayEnd},
		{Type: TokenOperator, Text: "TJ"},
		{Type: TokenOperator, Text: "Q"},
	}
	assert.Equal(t, want, got)
}

func TestLexerHexStringError(t *testing.T) {
	lexer := NewLexer(strings.NewReader("<4G>"))
	_, err := lexer.NextToken()
	assert.Error(t, err)
}

func TestScanStrokedLines(t *testing.T) {
	g, err := Scan([]byte("0.5 w 10 20 m 110 20 l S 10 20 m 10 80 l 10 90 l S"))
	require.NoError(t, err)

	require.Len(t, g.Segments, 3)
	assert.Equal(t, Segment{X0: 10, Y0: 20, X1: 110, Y1: 20, Width: 0.5}, g.Segments[0])
	assert.Equal(t, Segment{X0: 10, Y0: 20, X1: 10, Y1: 80, Width: 0.5}, g.Segments[1])
	assert.Equal(t, Segment{X0: 10, Y0: 80, X1: 10, Y1: 90, Width: 0.5}, g.Segments[2])
	assert.Empty(t, g.Rects)
}

func TestScanRectangles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Rect
	}{
		{
			name:    "re operator stroked",
			content: "10 10 100 50 re S",
			want:    []Rect{{X0: 10, Y0: 10, X1: 110, Y1: 60, Stroked: true}},
		},
		{
			name:    "negative height is normalized",
			content: "10 60 100 -50 re f",
			want:    []Rect{{X0: 10, Y0: 10, X1: 110, Y1: 60, Filled: true}},
		},
		{
			name:    "hand drawn closed box",
			content: "0 0 m 20 0 l 20 5 l 0 5 l h B",
			want:    []Rect{{X0: 0, Y0: 0, X1: 20, Y1: 5, Stroked: true, Filled: true}},
		},
		{
			name:    "unpainted path is discarded",
			content: "0 0 50 50 re W n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Scan([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Rects)
		})
	}
}

func TestScanAppliesCTMAndGraphicsStack(t *testing.T) {
	content := `q 2 0 0 2 100 100 cm 0 0 10 5 re f Q
0 0 m 5 0 l S`
	g, err := Scan([]byte(content))
	require.NoError(t, err)

	require.Len(t, g.Rects, 1)
	assert.Equal(t, Rect{X0: 100, Y0: 100, X1: 120, Y1: 110, Filled: true}, g.Rects[0])

	require.Len(t, g.Segments, 1)
	assert.Equal(t, 5.0, g.Segments[0].X1, "CTM restored by Q")
}

func TestScanSkipsInlineImages(t *testing.T) {
	content := "BI /W 2 /H 1 /BPC 8 /CS /G ID \x00\xff)(EI\n EI 0 0 m 0 10 l S"
	g, err := Scan([]byte(content))
	require.NoError(t, err)
	require.Len(t, g.Segments, 1)
	assert.Equal(t, 10.0, g.Segments[0].Y1)
}

func TestScanIgnoresTextAndArrays(t *testing.T) {
	content := "BT /F1 10 Tf 1 0 0 1 50 50 Tm [(A) -250 (B)] TJ ET 1 1 m 2 2 l S"
	g, err := Scan([]byte(content))
	require.NoError(t, err)
	require.Len(t, g.Segments, 1)
	assert.Equal(t, Segment{X0: 1, Y0: 1, X1: 2, Y1: 2, Width: 1}, g.Segments[0])
}

// formMap resolves forms from a map; a nil entry is a non-form XObject
type formMap map[string]*Form

func (m formMap) Form(name string) (Form, bool, error) {
	f, found := m[name]
	if !found {
		return Form{}, false, nil
	}
	if f == nil {
		return Form{}, false, errors.New("broken stream")
	}
	return *f, true, nil
}

func TestScanPaintsFormXObjects(t *testing.T) {
	forms := formMap{
		"Grid": {
			Content: []byte("0 0 m 100 0 l S q /Cell Do Q"),
			Matrix:  Matrix{A: 1, D: 1, E: 10, F: 20},
		},
		"Cell": {Content: []byte("0 0 50 10 re S")},
	}

	g, err := NewScanner(Identity()).WithForms(forms).
		Scan([]byte("q 2 0 0 2 0 0 cm /Grid Do Q /Image Do 0 0 m 0 5 l S"))
	require.NoError(t, err)

	require.Len(t, g.Segments, 2)
	assert.Equal(t, Segment{X0: 20, Y0: 40, X1: 220, Y1: 40, Width: 2}, g.Segments[0])
	assert.Equal(t, Segment{X0: 0, Y0: 0, X1: 0, Y1: 5, Width: 1}, g.Segments[1], "state restored after the form")

	require.Len(t, g.Rects, 1)
	assert.Equal(t, Rect{X0: 20, Y0: 40, X1: 120, Y1: 60, Stroked: true}, g.Rects[0])
}

func TestScanFormNestingIsBounded(t *testing.T) {
	forms := formMap{"Loop": {Content: []byte("0 0 m 10 0 l S /Loop Do")}}

	g, err := NewScanner(Identity()).WithForms(forms).Scan([]byte("/Loop Do"))
	require.NoError(t, err)
	assert.Len(t, g.Segments, maxFormDepth)
}

func TestScanFormErrors(t *testing.T) {
	_, err := NewScanner(Identity()).WithForms(formMap{"Bad": nil}).Scan([]byte("/Bad Do"))
	assert.ErrorContains(t, err, "form Bad")

	g, err := Scan([]byte("/Grid Do 0 0 m 1 0 l S"))
	require.NoError(t, err)
	assert.Len(t, g.Segments, 1, "Do is ignored without a resolver")
}
