package entity

// GameState is the full snapshot broadcast to viewers after every mutation.
// GameData carries the variant-specific part (count-down scores or cricket
// target boards) and is plain data, never an engine-internal object.
type GameState struct {
	Players        []Player `json:"players"`
	CurrentPlayer  int      `json:"current_player"`
	GameType       string   `json:"game_type"`
	IsStarted      bool     `json:"is_started"`
	IsPaused       bool     `json:"is_paused"`
	IsWinner       bool     `json:"is_winner"`
	CurrentThrow   int      `json:"current_throw"`
	GameData       any      `json:"game_data,omitempty"`
	ThrowoutAdvice []string `json:"throwout_advice,omitempty"`
}
