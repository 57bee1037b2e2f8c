package audio

type MicrophoneConfig struct {
	SampleRate       int
	ListenTimeout    int
	PhraseLimit      int
	SilenceThreshold int16
}

func (c MicrophoneConfig) withDefaults() MicrophoneConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ListenTimeout <= 0 {
		c.ListenTimeout = 5
	}
	if c.PhraseLimit <= 0 {
		c.PhraseLimit = 10
	}
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 500
	}
	return c
}
