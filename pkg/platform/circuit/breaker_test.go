package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) breaker(opts ...Option) *Breaker {
	opts = append(opts, WithClock(func() time.Time { return s.now }))
	return New("cardbin", opts...)
}

// trip opens b with consecutive failures.
func (s *BreakerSuite) trip(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
	s.Require().True(b.IsOpen())
}

func (s *BreakerSuite) TestStartsClosed() {
	b := s.breaker()
	s.Equal(StateClosed, b.State())
	s.Equal("cardbin", b.Name())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpensOnlyAtThreshold() {
	b := s.breaker(WithFailureThreshold(3))

	for i := 1; i < 3; i++ {
		useFallback, change := b.RecordFailure()
		s.False(useFallback, "failure %d", i)
		s.False(change.Opened, "failure %d", i)
	}

	useFallback, change := b.RecordFailure()
	s.True(useFallback)
	s.True(change.Opened)

	useFallback, change = b.RecordFailure()
	s.True(useFallback, "an open breaker keeps routing to the fallback")
	s.False(change.Opened, "already open")
}

func (s *BreakerSuite) TestConsecutiveCountsResetOnOppositeOutcome() {
	s.Run("success clears failures", func() {
		b := s.breaker(WithFailureThreshold(3))
		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordFailure()
		s.False(b.IsOpen())
		b.RecordFailure()
		s.True(b.IsOpen())
	})

	s.Run("failure clears successes while open", func() {
		b := s.breaker(WithFailureThreshold(1), WithSuccessThreshold(3))
		s.trip(b, 1)
		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()
		s.True(b.IsOpen())
		usePrimary, change := b.RecordSuccess()
		s.True(usePrimary)
		s.True(change.Closed)
	})
}

func (s *BreakerSuite) TestProbesOncePerCooldown() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(time.Minute))
	s.trip(b, 1)
	s.False(b.Allow())

	s.now = s.now.Add(time.Minute)
	s.True(b.Allow(), "first call after cooldown is a probe")
	s.False(b.Allow(), "one probe per window")

	s.now = s.now.Add(time.Minute)
	s.True(b.Allow())
}

func (s *BreakerSuite) TestReset() {
	b := s.breaker(WithFailureThreshold(1))
	s.trip(b, 1)

	b.Reset()

	s.Equal(StateClosed, b.State())
	s.True(b.Allow())
}
