package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eirem/relay/internal/domain"
)

func TestMessageValidate(t *testing.T) {
	valid := domain.Message{From: "7", To: "9", Text: "hi", Timestamp: 100}
	assert.NoError(t, valid.Validate())

	cases := map[string]struct {
		msg  domain.Message
		want error
	}{
		"empty_from": {domain.Message{To: "9", Text: "hi"}, domain.ErrMessageFromEmpty},
		"empty_to":   {domain.Message{From: "7", Text: "hi"}, domain.ErrMessageToEmpty},
		"empty_text": {domain.Message{From: "7", To: "9"}, domain.ErrMessageTextEmpty},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, tc.msg.Validate(), tc.want)
		})
	}
}
