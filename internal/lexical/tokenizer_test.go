package lexical

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and splits on punctuation",
			text: "Finished the API-Gateway task!",
			want: []string{"finished", "api", "gateway", "task"},
		},
		{
			name: "drops stop words and short tokens",
			text: "I worked on a task at 9",
			want: []string{"worked", "task"},
		},
		{
			name: "preserves order and repeats",
			text: "focus session focus session",
			want: []string{"focus", "session", "focus", "session"},
		},
		{
			name: "empty input",
			text: "",
			want: []string{},
		},
		{
			name: "only punctuation",
			text: "!!! --- ???",
			want: []string{},
		},
		{
			name: "keeps digits",
			text: "sprint 42 review",
			want: []string{"sprint", "42", "review"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "deep focus work", b: "deep focus work", want: 1.0},
		{name: "disjoint", a: "project alpha", b: "weekly review", want: 0.0},
		{name: "both empty", a: "", b: "", want: 1.0},
		{name: "one empty", a: "task summary", b: "", want: 0.0},
		{name: "half overlap", a: "focus time", b: "focus breaks", want: 1.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(TokenSet(tt.a), TokenSet(tt.b))
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
