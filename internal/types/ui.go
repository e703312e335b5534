package types

type ViewStats struct {
	Min  uint8   `json:"min"`
	Max  uint8   `json:"max"`
	Mean float64 `json:"mean"`
}

type FrameStats struct {
	Sequence uint64      `json:"sequence"`
	Width    int         `json:"width"`
	Height   int         `json:"height"`
	FPS      float64     `json:"fps"`
	Views    []ViewStats `json:"views"`
}

type UIConfig struct {
	Type         string `json:"type"`
	TargetHeight int    `json:"target_height"`
	Endpoint     string `json:"endpoint"`
	Delay        string `json:"delay"`
	RunID        string `json:"run_id"`
}

// StatsMessage is pushed to viewer clients after every presented frame.
type StatsMessage struct {
	Type  string     `json:"type"`
	Stats FrameStats `json:"stats"`
}
