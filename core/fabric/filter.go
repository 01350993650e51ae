package fabric

import (
	"context"
	"iter"
	"slices"
)

// Filter exposes inbox as a sequence of messages whose topic is one of
// topics, or every message when topics is empty. Messages with other topics
// are consumed and discarded. The sequence ends when ctx is done or the
// inbox closes; ranging over it again resumes from the inbox.
func Filter(ctx context.Context, inbox <-chan Message, topics ...string) iter.Seq[Message] {
	return func(yield func(Message) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-inbox:
				if !ok {
					return
				}
				if len(topics) > 0 && !slices.Contains(topics, m.Topic) {
					continue
				}
				if !yield(m) {
					return
				}
			}
		}
	}
}
