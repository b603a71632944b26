// File: internal/linkedin/accumulator_test.go

package linkedin

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulatorPreservesFirstSeenOrder(t *testing.T) {
	acc := newAccumulator(0)
	acc.merge(candidate{URN: "urn:li:activity:2", Description: "second"})
	acc.merge(candidate{URN: "urn:li:activity:1", Description: "first"})
	acc.merge(candidate{URN: "urn:li:activity:3", Description: "third"})
	// A repeat sighting must not reorder.
	acc.merge(candidate{URN: "urn:li:activity:2", Description: "second again"})

	posts := acc.posts()
	require.Len(t, posts, 3)
	assert.Equal(t, "urn:li:activity:2", posts[0].URN)
	assert.Equal(t, "urn:li:activity:1", posts[1].URN)
	assert.Equal(t, "urn:li:activity:3", posts[2].URN)
}

func TestAccumulatorMergeRules(t *testing.T) {
	acc := newAccumulator(0)
	acc.merge(candidate{
		URN:          "urn:li:activity:9",
		Description:  "original text",
		Images:       []string{"https://media.licdn.com/a.jpg"},
		LikesText:    "You and 2 others",
		CommentsText: "5 comments",
	})

	// Re-observation with an empty description and no images keeps the
	// richer values but always refreshes the counters.
	acc.merge(candidate{
		URN:          "urn:li:activity:9",
		LikesText:    "12",
		CommentsText: "7 comments",
	})

	posts := acc.posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "original text", posts[0].Description)
	assert.Equal(t, []string{"https://media.licdn.com/a.jpg"}, posts[0].Images)
	assert.Equal(t, 12, posts[0].LikesCount)
	assert.Equal(t, 7, posts[0].CommentsCount)

	// A richer re-observation wins on the mutable fields.
	acc.merge(candidate{
		URN:          "urn:li:activity:9",
		Description:  "expanded text",
		Images:       []string{"https://media.licdn.com/b.jpg", "https://media.licdn.com/b.jpg"},
		LikesText:    "You reacted",
		CommentsText: "",
	})
	posts = acc.posts()
	assert.Equal(t, "expanded text", posts[0].Description)
	assert.Equal(t, []string{"https://media.licdn.com/b.jpg"}, posts[0].Images, "images deduplicated")
	assert.Equal(t, 1, posts[0].LikesCount)
	assert.Equal(t, 0, posts[0].CommentsCount)
}

func TestAccumulatorDropsMissingURN(t *testing.T) {
	acc := newAccumulator(0)
	acc.merge(candidate{Description: "no identity"})
	assert.Empty(t, acc.posts())
}

func TestAccumulatorCap(t *testing.T) {
	acc := newAccumulator(3)
	for i := 0; i < 10; i++ {
		acc.merge(candidate{URN: fmt.Sprintf("urn:li:activity:%d", i)})
	}
	require.Len(t, acc.posts(), 3)
	assert.True(t, acc.full())

	// Known entries still update at the cap; new ones are rejected.
	acc.merge(candidate{URN: "urn:li:activity:1", LikesText: "42"})
	acc.merge(candidate{URN: "urn:li:activity:99"})
	posts := acc.posts()
	require.Len(t, posts, 3)
	assert.Equal(t, 42, posts[1].LikesCount)
}

func TestAccumulatorUnlimitedWhenZero(t *testing.T) {
	acc := newAccumulator(0)
	for i := 0; i < 500; i++ {
		acc.merge(candidate{URN: fmt.Sprintf("urn:li:activity:%d", i)})
	}
	assert.Len(t, acc.posts(), 500)
	assert.False(t, acc.full())
}
