package query

import "time"

// Options tunes caching, retries and pacing of the profile queries.
type Options struct {
	// StaleTime is how long a fetched value is served without refetching.
	StaleTime time.Duration
	// CacheTime is how long an unused entry is retained before eviction.
	CacheTime time.Duration
	// GCInterval is how often unused entries are swept.
	GCInterval time.Duration

	QueryAttempts    int
	MutationAttempts int
	RetryBaseDelay   time.Duration

	// PacingDuration is how long addingProfileInfo stays set after the
	// onboarding write resolves.
	PacingDuration time.Duration
}

func DefaultOptions() Options {
	return Options{
		StaleTime:        5 * time.Minute,
		CacheTime:        30 * time.Minute,
		GCInterval:       time.Minute,
		QueryAttempts:    3,
		MutationAttempts: 2,
		RetryBaseDelay:   time.Second,
		PacingDuration:   2500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StaleTime <= 0 {
		o.StaleTime = d.StaleTime
	}
	if o.CacheTime <= 0 {
		o.CacheTime = d.CacheTime
	}
	if o.GCInterval <= 0 {
		o.GCInterval = d.GCInterval
	}
	if o.QueryAttempts <= 0 {
		o.QueryAttempts = d.QueryAttempts
	}
	if o.MutationAttempts <= 0 {
		o.MutationAttempts = d.MutationAttempts
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = d.RetryBaseDelay
	}
	if o.PacingDuration <= 0 {
		o.PacingDuration = d.PacingDuration
	}
	return o
}
