package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubjects(t *testing.T) {
	require.Equal(t, "edutrack.timetable.changed", subjectFor(normalizePrefix("edutrack"), TimetableChanged))
	require.Equal(t, "edutrack.prod.semester.current", subjectFor(normalizePrefix(" edutrack:prod. "), SemesterCurrent))
	require.Equal(t, AnnouncementPublished, subjectFor(normalizePrefix(""), AnnouncementPublished))
}

func TestRecorderAndNoop(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, NewNoopPublisher().Publish(ctx, Event{Topic: SubmissionGraded}))

	recorder := &Recorder{}
	require.NoError(t, recorder.Publish(ctx, Event{Topic: AnnouncementPublished, EntityID: 3}))
	require.NoError(t, recorder.Publish(ctx, Event{Topic: TimetableChanged, EntityID: 9}))
	require.Equal(t, []string{AnnouncementPublished, TimetableChanged}, recorder.Topics())
	require.Equal(t, uint(9), recorder.Events[1].EntityID)
}
