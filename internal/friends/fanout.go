package friends

import "github.com/google/uuid"

// OtherConnectRecipients returns everyone who is a friend of a or of b,
// excluding a and b, each exactly once. Order is first-seen: a's friends
// first, then b's.
func OtherConnectRecipients(friendsA, friendsB []uuid.UUID, a, b uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(friendsA)+len(friendsB)+2)
	seen[a] = struct{}{}
	seen[b] = struct{}{}

	out := make([]uuid.UUID, 0, len(friendsA)+len(friendsB))
	for _, list := range [2][]uuid.UUID{friendsA, friendsB} {
		for _, id := range list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
