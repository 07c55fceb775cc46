package entity

// Player is a roster entry. IDs are positional: the roster always holds
// ids 0..N-1 with no gaps, and removing a player renumbers everyone after it.
type Player struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
