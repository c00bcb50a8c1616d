package ipc

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool    `json:"ok"`
	State   string  `json:"state,omitempty"`
	Message string  `json:"message,omitempty"`
	Level   float64 `json:"level,omitempty"`
	Error   string  `json:"error,omitempty"`
}
