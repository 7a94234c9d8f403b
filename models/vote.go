package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction is the state of one user's vote on an issue.
type Reaction int

const (
	NoReaction Reaction = iota
	Liked
	Disliked
)

// ReactionOf returns the user's current vote on the issue.
func (i *Issue) ReactionOf(userID primitive.ObjectID) Reaction {
	if containsID(i.Likes, userID) {
		return Liked
	}
	if containsID(i.Dislikes, userID) {
		return Disliked
	}
	return NoReaction
}

// SetReaction puts userID in exactly the set matching r, removing it from
// the other one. A user is never in both likes and dislikes.
func (i *Issue) SetReaction(userID primitive.ObjectID, r Reaction) {
	i.Likes = removeID(i.Likes, userID)
	i.Dislikes = removeID(i.Dislikes, userID)
	switch r {
	case Liked:
		i.Likes = append(i.Likes, userID)
	case Disliked:
		i.Dislikes = append(i.Dislikes, userID)
	}
}

// NextReaction computes the toggle: pressing the button that matches the
// current vote clears it, pressing the other one switches to it.
func NextReaction(current, pressed Reaction) Reaction {
	if current == pressed {
		return NoReaction
	}
	return pressed
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
