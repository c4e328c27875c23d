package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "direct keyword",
			text: "I need help with my anxiety",
			want: []string{"anxiety"},
		},
		{
			name: "implied keyword",
			text: "I lie awake at night and can't sleep",
			want: []string{"insomnia"},
		},
		{
			name: "multiple topics sorted",
			text: "work stress is making me anxious",
			want: []string{"anxiety", "stress"},
		},
		{
			name: "case insensitive",
			text: "PROCRASTINATION again",
			want: []string{"procrastination"},
		},
		{
			name: "nothing recognized",
			text: "show me the one from last week",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text))
		})
	}
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"anger", "anxiety", "stress"},
		Union([]string{"stress", "anxiety"}, []string{"anger", "anxiety"}))
	assert.Nil(t, Union(nil, nil))
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps([]string{"anxiety", "stress"}, []string{"stress"}))
	assert.False(t, Overlaps([]string{"anxiety"}, []string{"anger"}))
	assert.False(t, Overlaps(nil, []string{"anger"}))
	assert.False(t, Overlaps([]string{"anger"}, nil))
}
