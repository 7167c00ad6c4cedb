package natsgath

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// New creates a NATS gatherer that streams events on the submission's
// own subject.
func New(nc *nats.Conn, submissionID int64) *natsGatherer {
	return &natsGatherer{
		nc:           nc,
		subject:      fmt.Sprintf("submission.%d", submissionID),
		submissionID: submissionID,
	}
}
