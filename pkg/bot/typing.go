package bot

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// keepTyping shows the typing indicator until the returned stop func is called.
// Discord drops the indicator after about ten seconds, so it is refreshed on
// every typingInterval. stop is safe to call more than once.
func (h *Handler) keepTyping(s Session, channelID string) func() {
	if err := s.ChannelTyping(channelID); err != nil {
		log.WithField("channel_id", channelID).Debugf("Error sending typing indicator: %v", err)
	}

	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(h.typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.ChannelTyping(channelID); err != nil {
					log.WithField("channel_id", channelID).Debugf("Error refreshing typing indicator: %v", err)
				}
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
