package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"exact spam", "spam", LabelSpam},
		{"exact not-spam", "not-spam", LabelNotSpam},
		{"spam with whitespace", "  Spam \n", LabelSpam},
		{"not-spam with whitespace", " NOT-SPAM ", LabelNotSpam},
		{"spam in a sentence", "This email is spam.", LabelSpam},
		{"not-spam in a sentence", "I would say this is not-spam.", LabelNotSpam},
		{"both labels mentioned", "spam, definitely not not-spam", LabelSpam},
		{"unrecognized output", "I cannot determine that.", LabelNotSpam},
		{"empty output", "", LabelNotSpam},
		{"ham", "ham", LabelNotSpam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLabel(tt.output))
		})
	}
}
