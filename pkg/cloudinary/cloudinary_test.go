package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestJoinFolder(t *testing.T) {
	require.Equal(t, "edutrack/uploads/submissions", joinFolder("/edutrack/uploads/", "submissions"))
	require.Equal(t, "materials", joinFolder("", "/materials/"))
	require.Equal(t, "edutrack", joinFolder("edutrack", " "))
}

func TestBuildPublicID(t *testing.T) {
	at := time.Unix(1700000000, 0)
	require.Equal(t, "week-1-notes-1700000000", buildPublicID("week 1 notes.pdf", at))
	require.Equal(t, "upload-1700000000", buildPublicID("???.zip", at))
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
	require.False(t, Config{CloudName: "demo", APIKey: "key"}.Configured())
}
