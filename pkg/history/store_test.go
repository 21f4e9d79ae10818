package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestAppendKeepsOrder(t *testing.T) {
	s := NewStore(0)
	a := s.Append("https://a.example", "Legitimate Website", t0)
	b := s.Append("http://b.example", "Phishing Website", t0.Add(time.Minute))

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	got := s.List()
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example", got[0].URL)
	assert.Equal(t, "Phishing Website", got[1].Label)
	assert.Equal(t, t0.Add(time.Minute), got[1].CheckedAt)
}

func TestListReturnsCopy(t *testing.T) {
	s := NewStore(0)
	s.Append("https://a.example", "Legitimate Website", t0)

	got := s.List()
	got[0].URL = "mutated"
	assert.Equal(t, "https://a.example", s.List()[0].URL)
}

func TestMaxRecordsDropsOldest(t *testing.T) {
	s := NewStore(3)
	for i := 0; i < 5; i++ {
		s.Append(fmt.Sprintf("https://%d.example", i), "Legitimate Website", t0)
	}

	got := s.List()
	require.Len(t, got, 3)
	assert.Equal(t, "https://2.example", got[0].URL)
	assert.Equal(t, "https://4.example", got[2].URL)
}

func TestClear(t *testing.T) {
	s := NewStore(0)
	s.Append("https://a.example", "Legitimate Website", t0)
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append(fmt.Sprintf("https://%d.example", i), "Legitimate Website", t0)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
