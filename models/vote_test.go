package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNextReaction(t *testing.T) {
	assert.Equal(t, Liked, NextReaction(NoReaction, Liked))
	assert.Equal(t, NoReaction, NextReaction(Liked, Liked))
	assert.Equal(t, Disliked, NextReaction(Liked, Disliked))
	assert.Equal(t, Liked, NextReaction(Disliked, Liked))
	assert.Equal(t, NoReaction, NextReaction(Disliked, Disliked))
}

func TestSetReactionKeepsSetsDisjoint(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	issue := &Issue{}

	issue.SetReaction(a, Liked)
	issue.SetReaction(b, Disliked)
	assert.Equal(t, []primitive.ObjectID{a}, issue.Likes)
	assert.Equal(t, []primitive.ObjectID{b}, issue.Dislikes)

	issue.SetReaction(a, Disliked)
	assert.Empty(t, issue.Likes)
	assert.ElementsMatch(t, []primitive.ObjectID{a, b}, issue.Dislikes)
	assert.Equal(t, Disliked, issue.ReactionOf(a))

	issue.SetReaction(a, NoReaction)
	assert.Equal(t, NoReaction, issue.ReactionOf(a))
	assert.Equal(t, []primitive.ObjectID{b}, issue.Dislikes)
}

func TestSetReactionDoesNotAliasClone(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	orig := &Issue{Likes: []primitive.ObjectID{a, b}}
	clone := orig.Clone()

	clone.SetReaction(a, Disliked)

	assert.Equal(t, []primitive.ObjectID{a, b}, orig.Likes)
	assert.Equal(t, []primitive.ObjectID{b}, clone.Likes)
}
