package domain

// State enumerates the lifecycle of a generation run. The progression is
// strictly forward; the only way back is a restart from StateStarting when a
// new request comes in.
type State string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateEnhancing  State = "enhancing"
	StateGenerating State = "generating"
	StateDone       State = "done"
	StateError      State = "error"
)

// GenerationStatus is the single observable job record. The service tracks
// one run at a time; starting a new run overwrites whatever the previous one
// left behind. ImagePath stays empty until the run reaches StateDone and
// Error stays empty unless it reaches StateError.
type GenerationStatus struct {
	Status         State  `json:"status"`
	Progress       int    `json:"progress"`
	Message        string `json:"message"`
	OriginalPrompt string `json:"original_prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	ImagePath      string `json:"image_path"`
	Error          string `json:"error"`
}
