package metadata

import (
	"encoding/json"
	"testing"

	"stopsum/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawPost(t *testing.T, body string) graph.RawPost {
	t.Helper()
	var raw graph.RawPost
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

func TestFromGraphPostFull(t *testing.T) {
	raw := rawPost(t, `{
		"id": "5281959998_101",
		"type": "link",
		"message": "Ça va? 🎲",
		"created_time": "2015-03-14T09:26:53+0000",
		"shares": {"count": 12},
		"likes": {"data": [{"id": "1"}], "summary": {"total_count": 340}},
		"comments": {"data": [], "summary": {"total_count": 7}}
	}`)

	post, err := FromGraphPost(raw)
	require.NoError(t, err)

	assert.Equal(t, "5281959998_101", post.ID)
	assert.Equal(t, "link", post.Type)
	assert.Equal(t, 8, post.MessageLength, "length counts characters")
	assert.Equal(t, 12, post.SharesCount)
	assert.Equal(t, 340, post.LikesCount)
	assert.Equal(t, 7, post.CommentsCount)

	assert.Equal(t, []string{"5281959998_101", "link", "2015-03-14", "09:26:53", "8", "12", "340", "7"}, post.Record())
}

func TestFromGraphPostMissingFields(t *testing.T) {
	raw := rawPost(t, `{"id": "1_2", "type": "photo", "created_time": "2012-12-31T23:59:59+0000"}`)

	post, err := FromGraphPost(raw)
	require.NoError(t, err)

	assert.Equal(t, 0, post.MessageLength)
	assert.Equal(t, 0, post.SharesCount)
	assert.Equal(t, 0, post.LikesCount)
	assert.Equal(t, 0, post.CommentsCount)
}

func TestFromGraphPostKeepsOffset(t *testing.T) {
	raw := rawPost(t, `{"id": "1_3", "type": "status", "created_time": "2014-07-01T01:00:00-0500"}`)

	post, err := FromGraphPost(raw)
	require.NoError(t, err)

	record := post.Record()
	assert.Equal(t, "2014-07-01", record[2])
	assert.Equal(t, "01:00:00", record[3])
}

func TestFromGraphPostErrors(t *testing.T) {
	_, err := FromGraphPost(graph.RawPost{Type: "link", CreatedTime: "2014-07-01T01:00:00+0000"})
	assert.Error(t, err)

	_, err = FromGraphPost(graph.RawPost{ID: "1", CreatedTime: "2014-07-01 01:00"})
	assert.ErrorContains(t, err, "invalid created_time")
}

func TestHeaderMatchesRecord(t *testing.T) {
	post := &Post{ID: "x"}
	assert.Len(t, post.Record(), len(Header()))
	assert.Equal(t, "id", Header()[0])
	assert.Equal(t, "comments_count", Header()[7])
}
