package cmd

import (
	"context"
	"errors"
	"phishdetect/pkg/common"
	"phishdetect/pkg/config"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawWhoisRecord = `   Domain Name: EXAMPLE-SHOP.COM
   Registry Domain ID: 2336799_DOMAIN_COM-VRSN
   Registrar WHOIS Server: whois.example-registrar.com
   Registrar URL: http://www.example-registrar.com
   Updated Date: 2024-08-14T07:01:34Z
   Creation Date: 2012-08-14T04:00:00Z
   Registry Expiry Date: 2027-08-13T04:00:00Z
   Registrar: Example Registrar, Inc.
   Registrar IANA ID: 376
   Domain Status: clientTransferProhibited https://icann.org/epp#clientTransferProhibited
   Name Server: NS1.EXAMPLE-SHOP.COM
   Name Server: NS2.EXAMPLE-SHOP.COM
   DNSSEC: unsigned
Domain Name: example-shop.com
Creation Date: 2009-03-02T11:22:33Z
Registrant Name: Jane Doe
Registrant Organization: Example Shop Ltd
Registrant Street: 1 Market Street
Registrant City: Springfield
Registrant Country: US
Admin Name: Jane Doe
Tech Name: Hostmaster
`

func TestParseRegistration(t *testing.T) {
	rec, err := ParseRegistration("example-shop.com", rawWhoisRecord)
	require.NoError(t, err)
	require.NotNil(t, rec)

	created, ok := rec.CreationDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2009, 3, 2, 11, 22, 33, 0, time.UTC), created, "earliest of the listed creation dates wins")
	assert.True(t, rec.HasAddress)
}

func TestParseRegistrationGarbage(t *testing.T) {
	_, err := ParseRegistration("example.com", "No match for \"EXAMPLE.COM\".\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}

func TestRegistrationRecordNil(t *testing.T) {
	var rec *RegistrationRecord
	_, ok := rec.CreationDate()
	assert.False(t, ok)
}

func TestDomainAgeYears(t *testing.T) {
	created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		now  time.Time
		want int
	}{
		{now: created, want: 0},
		{now: created.Add(364 * 24 * time.Hour), want: 0},
		{now: created.Add(365 * 24 * time.Hour), want: 1},
		// 2020 is a leap year: 2021-01-01 is 366 days later, still one 365-day year
		{now: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), want: 1},
		{now: time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), want: 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DomainAgeYears(created, tt.now), "now=%s", tt.now)
	}
}

func TestWhoisRegistrarRejectsBareSuffix(t *testing.T) {
	r := NewWhoisRegistrar(config.WhoisConfig{})
	_, err := r.Lookup(context.Background(), "co.uk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}

func TestWhoisRegistrarRateLimit(t *testing.T) {
	r := NewWhoisRegistrar(config.WhoisConfig{RatePerMinute: 1})
	// Drain the single token without touching the network.
	require.True(t, r.limiter.Allow())

	_, err := r.Lookup(context.Background(), "example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
	assert.Contains(t, err.Error(), "rate limit")
}

func TestWhoisRegistrarCancelledContext(t *testing.T) {
	r := NewWhoisRegistrar(config.WhoisConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Lookup(ctx, "example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}
