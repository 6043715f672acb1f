package editor

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/profilekeeper/internal/client/models"
	"github.com/dmitrijs2005/profilekeeper/internal/timex"
	"github.com/stretchr/testify/assert"
)

func TestScheduler_ArmReplacesPendingTask(t *testing.T) {
	clock := timex.NewFakeClock(epoch)
	s := NewScheduler(clock, time.Second)

	var fired []string
	s.Arm(models.FieldBio, func() { fired = append(fired, "first") })
	clock.Advance(600 * time.Millisecond)
	s.Arm(models.FieldBio, func() { fired = append(fired, "second") })

	clock.Advance(600 * time.Millisecond)
	assert.Empty(t, fired)

	clock.Advance(400 * time.Millisecond)
	assert.Equal(t, []string{"second"}, fired)
	assert.Empty(t, s.Pending())
	assert.Zero(t, clock.Pending())
}

func TestScheduler_FieldsAreIndependent(t *testing.T) {
	clock := timex.NewFakeClock(epoch)
	s := NewScheduler(clock, time.Second)

	var fired []models.Field
	record := func(f models.Field) func() { return func() { fired = append(fired, f) } }

	s.Arm(models.FieldBio, record(models.FieldBio))
	s.Arm(models.FieldGoals, record(models.FieldGoals))
	s.Arm(models.FieldInterests, record(models.FieldInterests))
	assert.Equal(t, []models.Field{models.FieldBio, models.FieldGoals, models.FieldInterests}, s.Pending())

	assert.True(t, s.Cancel(models.FieldGoals))
	assert.False(t, s.Cancel(models.FieldGoals))

	clock.Advance(time.Second)
	assert.Equal(t, []models.Field{models.FieldBio, models.FieldInterests}, fired)
}

func TestScheduler_CancelAll(t *testing.T) {
	clock := timex.NewFakeClock(epoch)
	s := NewScheduler(clock, time.Second)

	fired := 0
	s.Arm(models.FieldDisplayName, func() { fired++ })
	s.Arm(models.FieldBio, func() { fired++ })

	assert.Equal(t, []models.Field{models.FieldBio, models.FieldDisplayName}, s.CancelAll())
	assert.Empty(t, s.CancelAll())

	clock.Advance(time.Minute)
	assert.Zero(t, fired)
}

// stubbornClock ignores Stop, like a timer that already started firing.
type stubbornClock struct{ *timex.FakeClock }

type stubbornTimer struct{}

func (stubbornTimer) Stop() bool { return false }

func (c stubbornClock) AfterFunc(d time.Duration, f func()) timex.Timer {
	c.FakeClock.AfterFunc(d, f)
	return stubbornTimer{}
}

func TestScheduler_ReplacedTaskDoesNotRunWhenStopFails(t *testing.T) {
	clock := stubbornClock{timex.NewFakeClock(epoch)}
	s := NewScheduler(clock, time.Second)

	var fired []string
	s.Arm(models.FieldBio, func() { fired = append(fired, "old") })
	s.Arm(models.FieldBio, func() { fired = append(fired, "new") })
	s.Cancel(models.FieldDisplayName)

	clock.Advance(time.Second)
	assert.Equal(t, []string{"new"}, fired)

	s.Arm(models.FieldBio, func() { fired = append(fired, "cancelled") })
	s.Cancel(models.FieldBio)
	clock.Advance(time.Second)
	assert.Equal(t, []string{"new"}, fired)
}
