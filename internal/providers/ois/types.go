package ois

// taskPayload is one entry of the /tasks object, keyed by task name.
type taskPayload struct {
	Name      string  `json:"name"`
	ShortName string  `json:"short_name"`
	Order     int     `json:"order"`
	MaxScore  float64 `json:"max_score"`
}

// userPayload is one entry of the /users object, keyed by the name shown on the board.
type userPayload struct {
	FirstName string  `json:"f_name"`
	LastName  string  `json:"l_name"`
	Team      *string `json:"team"`
}

// scoresPayload maps user -> task -> score.
type scoresPayload map[string]map[string]float64

// teamsPayload is only used as a liveness probe.
type teamsPayload map[string]any

// ordered keeps the keys of a JSON object in document order.
type ordered[T any] struct {
	keys  []string
	items map[string]T
}
