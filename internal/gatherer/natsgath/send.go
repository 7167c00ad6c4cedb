package natsgath

import (
	"encoding/json"
	"log"
)

// Publish failures are logged and swallowed: progress streaming is
// best-effort and must never affect the verdict.
func (s *natsGatherer) send(msg interface{}) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}

	if err := s.nc.Publish(s.subject, b); err != nil {
		log.Printf("failed to publish event to NATS: %v", err)
	}
}
