package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stopsum/pkg/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPost(id string, likes int) *metadata.Post {
	return &metadata.Post{
		ID:            id,
		Type:          "link",
		CreatedAt:     time.Date(2015, 6, 1, 12, 30, 0, 0, time.UTC),
		MessageLength: 5,
		LikesCount:    likes,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCSVSinkFreshRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	sink, err := NewCSVSink(dir, "nytimes", false)
	require.NoError(t, err)

	require.NoError(t, sink.Write(testPost("1_1", 3)))
	require.NoError(t, sink.Write(testPost("1_2", 4)))
	require.NoError(t, sink.Close())

	assert.Equal(t, filepath.Join(dir, "nytimes.csv"), sink.Path())
	assert.Equal(t, 2, sink.Rows())

	lines := readLines(t, sink.Path())
	require.Len(t, lines, 3)
	assert.Equal(t, "id,type,date,time,message_length,shares_count,likes_count,comments_count", lines[0])
	assert.Equal(t, "1_1,link,2015-06-01,12:30:00,5,0,3,0", lines[1])
}

func TestCSVSinkTruncatesWithoutResume(t *testing.T) {
	dir := t.TempDir()

	sink, err := NewCSVSink(dir, "page", false)
	require.NoError(t, err)
	require.NoError(t, sink.Write(testPost("old", 1)))
	require.NoError(t, sink.Close())

	sink, err = NewCSVSink(dir, "page", false)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	assert.Len(t, readLines(t, sink.Path()), 1)
	assert.Equal(t, 0, sink.Rows())
}

func TestCSVSinkResumeAppendsAndSkipsDuplicates(t *testing.T) {
	dir := t.TempDir()

	sink, err := NewCSVSink(dir, "page", false)
	require.NoError(t, err)
	require.NoError(t, sink.Write(testPost("a", 1)))
	require.NoError(t, sink.Close())

	resumed, err := NewCSVSink(dir, "page", true)
	require.NoError(t, err)
	assert.True(t, resumed.Has("a"))
	assert.Equal(t, 1, resumed.Rows())

	require.NoError(t, resumed.Write(testPost("a", 1)))
	require.NoError(t, resumed.Write(testPost("b", 2)))
	require.NoError(t, resumed.Close())

	assert.Equal(t, 2, resumed.Rows())
	assert.Equal(t, 1, resumed.Skipped())

	lines := readLines(t, resumed.Path())
	require.Len(t, lines, 3, "header written once")
	assert.True(t, strings.HasPrefix(lines[2], "b,"))
}

func TestCSVSinkResumeWithoutFileWritesHeader(t *testing.T) {
	sink, err := NewCSVSink(t.TempDir(), "page", true)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	lines := readLines(t, sink.Path())
	assert.Equal(t, metadata.Header()[0], strings.Split(lines[0], ",")[0])
}

func TestCSVSinkResumeRejectsForeignFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.csv"), []byte("a,b,c,d,e,f,g,h\n"), 0644))

	_, err := NewCSVSink(dir, "page", true)
	assert.Error(t, err)
}

func TestCSVSinkRequiresName(t *testing.T) {
	_, err := NewCSVSink(t.TempDir(), "", false)
	assert.Error(t, err)
}
