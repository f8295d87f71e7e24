package party_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/invoicer/party"
)

func TestInternational(t *testing.T) {
	nl := &party.Account{Country: "NL"}

	assert.True(t, party.International(nl, &party.Client{Country: "be"}))
	assert.False(t, party.International(nl, &party.Client{Country: "nl"}))
	assert.False(t, party.International(nl, &party.Client{}))
	assert.False(t, party.International(&party.Account{}, &party.Client{Country: "DE"}))
	assert.False(t, party.International(nil, nil))
}
