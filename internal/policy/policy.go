// Package policy decides whether an actor may modify a resource.
//
// Decisions are pure: they depend only on the actor and the ownership facts
// carried by the Resource, never on the store or the request.
package policy

import "go-blog-api/internal/model"

type Kind string

const (
	KindPost    Kind = "post"
	KindComment Kind = "comment"
	KindProfile Kind = "profile"
)

// Resource is the ownership view of a post, comment or profile. For a
// profile OwnerID is the profile's own user id. PostOwnerID is only set for
// comments.
type Resource struct {
	Kind        Kind
	OwnerID     string
	PostOwnerID string
}

type rule func(actor model.Actor, res Resource) bool

func isOwner(actor model.Actor, res Resource) bool {
	return res.OwnerID != "" && actor.ID == res.OwnerID
}

func isAdmin(actor model.Actor, _ Resource) bool {
	return actor.IsAdmin()
}

func isPostOwner(actor model.Actor, res Resource) bool {
	return res.PostOwnerID != "" && actor.ID == res.PostOwnerID
}

// rules grants modification when any rule for the kind matches.
var rules = map[Kind][]rule{
	KindPost:    {isOwner, isAdmin},
	KindComment: {isOwner, isAdmin, isPostOwner},
	KindProfile: {isOwner, isAdmin},
}

// CanModify reports whether actor may update or delete res. Anonymous actors
// and unknown kinds are always denied.
func CanModify(actor model.Actor, res Resource) bool {
	if actor.Anonymous() {
		return false
	}

	for _, allow := range rules[res.Kind] {
		if allow(actor, res) {
			return true
		}
	}

	return false
}

func Post(p model.Post) Resource {
	return Resource{Kind: KindPost, OwnerID: p.AuthorID}
}

func Comment(c model.Comment) Resource {
	return Resource{Kind: KindComment, OwnerID: c.AuthorID, PostOwnerID: c.PostAuthorID}
}

func Profile(u model.User) Resource {
	return Resource{Kind: KindProfile, OwnerID: u.ID}
}
